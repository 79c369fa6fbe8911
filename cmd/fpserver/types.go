package main

// ExtractRequest is the body of POST /extract. Image is Base64 or a data URI.
// A missing DPI lets the image metadata or the configured default decide.
type ExtractRequest struct {
	Image  string   `json:"image"`
	DPI    *float64 `json:"dpi,omitempty"`
	Format string   `json:"format,omitempty"`
}

type ExtractResponse struct {
	Template   string  `json:"template,omitempty"`
	Format     string  `json:"format,omitempty"`
	Minutiae   int     `json:"minutiae"`
	Width      int     `json:"width,omitempty"`
	Height     int     `json:"height,omitempty"`
	Resolution float64 `json:"resolution,omitempty"`
	Elapsed    string  `json:"elapsed,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
