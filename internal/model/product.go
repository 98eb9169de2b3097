package model

import "time"

type Product struct {
	ID          string    `json:"_id"`
	UserID      string    `json:"userId"`
	Name        string    `json:"name"`
	ImageURL    string    `json:"image"`
	ObjectKey   string    `json:"-"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	CreatedAt   time.Time `json:"createdAt"`
}

type ProductOwner struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// ProductListing is a product joined with its uploader, as shown in the
// admin view. The owner sits under "userId" like a populated reference.
type ProductListing struct {
	ID          string       `json:"_id"`
	Name        string       `json:"name"`
	ImageURL    string       `json:"image"`
	ContentType string       `json:"contentType"`
	Width       int          `json:"width"`
	Height      int          `json:"height"`
	Owner       ProductOwner `json:"userId"`
	CreatedAt   time.Time    `json:"createdAt"`
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Dimensions struct {
	Width  float64 `json:"width" validate:"gte=0"`
	Height float64 `json:"height" validate:"gte=0"`
}

type Design struct {
	ID        string     `json:"_id"`
	ImageURL  string     `json:"imageUrl"`
	Position  Point      `json:"position"`
	Size      Dimensions `json:"size"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}
