package models

// Upload is an image received from a client.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

type UploadResult struct {
	Success  bool     `json:"success"`
	ImageURL string   `json:"image_url"`
	Tags     []string `json:"tags"`
	ID       string   `json:"id"`
}

// Blob is stored image content with its media type.
type Blob struct {
	Data        []byte
	ContentType string
}
