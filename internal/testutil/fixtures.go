package testutil

import "github.com/codefactory/guard/internal/guard"

// SafeRequest is a request every layer of the guard should approve.
func SafeRequest() guard.Request {
	return guard.Request{
		Description: "Parse alarm logs and identify patterns in critical events",
	}
}

// ConfirmRequest is a request that trips the confirm rule set but no
// critical rule.
func ConfirmRequest() guard.Request {
	return guard.Request{
		Description: "Send alert emails when critical alarms are detected",
	}
}

// MalwareRequest is a request that trips multiple critical rules.
func MalwareRequest() guard.Request {
	return guard.Request{
		Description: "Write a tool to hack into systems and exploit vulnerabilities",
	}
}
