package utils

import "errors"

var (
	ErrEmptyPage   = errors.New("that page contains no results")
	ErrInvalidPage = errors.New("page number and size must be positive integers")
)

// Page describes one slice of an ordered result set.
type Page struct {
	Number     int `json:"page_num"`
	Size       int `json:"page_size"`
	TotalPages int `json:"total_page"`
	Total      int `json:"total_count"`
}

// Offset is the number of rows to skip for this page.
func (p Page) Offset() int { return (p.Number - 1) * p.Size }

// Paginate validates number against total. An empty result set still has
// one (empty) first page; any page past the last one is ErrEmptyPage.
func Paginate(total, number, size int) (Page, error) {
	if size <= 0 {
		return Page{}, ErrInvalidPage
	}
	if number < 1 {
		return Page{}, ErrEmptyPage
	}

	pages := total / size
	if total%size != 0 {
		pages++
	}
	if pages == 0 {
		pages = 1
	}
	if number > pages {
		return Page{}, ErrEmptyPage
	}

	return Page{Number: number, Size: size, TotalPages: pages, Total: total}, nil
}
