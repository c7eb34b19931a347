package models

import "time"

// DefaultCity is applied to clients registered without a city
const DefaultCity = "Cuiabá"

type Client struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	District  string    `json:"district"`
	City      string    `json:"city"`
	Route     string    `json:"route"`
	MapLink   string    `json:"map_link"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateClientRequest struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	District string `json:"district"`
	City     string `json:"city"`
	Route    string `json:"route"`
	MapLink  string `json:"map_link"`
}

type UpdateClientRequest = CreateClientRequest
