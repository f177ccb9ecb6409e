package types

type SuccessEnvelope struct {
	Data any `json:"data"`
}

// OKEnvelope acknowledges mutations that return no entity.
type OKEnvelope struct {
	OK bool `json:"ok"`
}

// ErrorEnvelope is the body of every failed response.
type ErrorEnvelope struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}
