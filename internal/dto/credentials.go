package dto

// Credentials is the sign-in/sign-up payload, accepted as JSON or form values.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthError is the JSON body of a rejected sign-in or sign-up.
type AuthError struct {
	Message string `json:"message"`
}
