package domain

import "time"

// NotFound is substituted for any product field that could not be extracted.
// It is distinct from an absent record: a page that loads but is missing
// elements still yields a product, with this marker in the failed fields.
const NotFound = "not found"

// ScrapeConfig is the payload for starting a scrape job.
type ScrapeConfig struct {
	StartURL          string `json:"start_url"`
	ContainerSelector string `json:"container_selector"`
	ItemSelector      string `json:"item_selector"`
	NextPageSelector  string `json:"next_page_selector"`
	MaxPages          int    `json:"max_pages"`      // 0 = walk every page
	SaveExcel         bool   `json:"save_excel"`     // false = CSV
	ForceRescrape     bool   `json:"force_rescrape"` // bypass the recently-scraped check
}

// Product holds the fields extracted from one product detail page.
type Product struct {
	SourceURL    string `json:"source_url" csv:"source_url"`
	Title        string `json:"title" csv:"title"`
	Description  string `json:"description" csv:"description"`
	Price        string `json:"price" csv:"price"`
	Rating       int    `json:"rating" csv:"rating"`
	Availability int    `json:"availability" csv:"availability"`
	Category     string `json:"category" csv:"category"`
	ImageURL     string `json:"image_url" csv:"image_url"`
}

// Book is one row of the exported catalog, as read back by the dataset layer.
type Book struct {
	ID int `json:"id" csv:"id"`
	Product
}

// User mirrors the users table.
type User struct {
	ID           int64     `json:"id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
}
