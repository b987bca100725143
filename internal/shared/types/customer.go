package types

import "time"

type Customer struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Email     string            `json:"email"`
	Phone     string            `json:"phone"`
	Address   map[string]string `json:"address,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}
