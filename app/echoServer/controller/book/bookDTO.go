package book

type BookReq struct {
	Title       string  `json:"title" validate:"required"`
	Author      string  `json:"author" validate:"required"`
	Genre       string  `json:"genre" validate:"required"`
	Pages       int     `json:"pages" validate:"required,gt=0"`
	Color       string  `json:"color" validate:"required"`
	Synopsis    string  `json:"synopsis"`
	CoverURL    *string `json:"cover_url" validate:"omitempty,url"`
	TotalCopies int     `json:"total_copies" validate:"required,gte=1"`
}

type SetFeaturedReq struct {
	Featured *bool `json:"featured" validate:"required"`
}
