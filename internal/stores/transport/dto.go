package transport

// RegisterStoreRequest is the payload for registering a new store.
type RegisterStoreRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=120"`
	Phone    string `json:"phone" validate:"required"`
	Pincode  string `json:"pincode" validate:"required,in_pincode"`
	Language string `json:"language" validate:"omitempty,oneof=hi en ta te kn bn mr"`
}
