package config

// Redacted is a string that never prints its full value. Logging or
// formatting it shows only the first four characters, so a secret
// cannot leak through debug output or error messages.
type Redacted string

// Secret returns the underlying value. Call sites are easy to audit.
func (r Redacted) Secret() string {
	return string(r)
}

func (r Redacted) String() string {
	if len(r) == 0 {
		return ""
	}
	prefix := string(r)
	if len(prefix) > 4 {
		prefix = prefix[:4]
	}
	return prefix + "***"
}

// GoString keeps %#v output redacted as well
func (r Redacted) GoString() string {
	return "config.Redacted(\"" + r.String() + "\")"
}
