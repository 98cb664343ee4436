package models

// RegisterRequest is the body of POST /register.
type RegisterRequest struct {
	FirstName string `json:"firstname" form:"firstname" validate:"required"`
	LastName  string `json:"lastname" form:"lastname" validate:"required"`
	Email     string `json:"email" form:"email" validate:"required,email,unique_email"`
	Password  string `json:"password" form:"password" validate:"required,min=6,max_bytes=72,password"`
}

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required,max_bytes=72"`
}

// CreateProductRequest holds the text fields of POST /create-product. The
// image part is validated separately. There is no owner field; the owner
// always comes from the authenticated identity.
type CreateProductRequest struct {
	Name        string `form:"name" json:"name" validate:"required"`
	Description string `form:"description" json:"description" validate:"required"`
	Price       string `form:"price" json:"price" validate:"required,number,price"`
}
