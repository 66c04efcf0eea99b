package dto

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Usuario      struct {
		ID        string `json:"id"`
		EmpresaID string `json:"empresa_id"`
		Username  string `json:"username"`
		Nombre    string `json:"nombre"`
		Rol       string `json:"rol"`
	} `json:"usuario"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}
