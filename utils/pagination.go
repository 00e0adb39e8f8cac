package utils

import (
	"errors"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ErrInvalidPage is returned when the requested page does not exist.
var ErrInvalidPage = errors.New("Página inválida.")

// Page is the page-number pagination envelope.
type Page struct {
	Count    int64       `json:"count"`
	Next     *string     `json:"next"`
	Previous *string     `json:"previous"`
	Results  interface{} `json:"results"`
}

// Paginate applies LIMIT/OFFSET for the "page" query parameter and returns
// the envelope with everything but Results filled. query must already carry
// its filters; it is counted before being limited.
func Paginate(c *gin.Context, query *gorm.DB, pageSize int) (*gorm.DB, *Page, error) {
	if pageSize <= 0 {
		pageSize = 20
	}

	page := 1
	if raw := c.Query("page"); raw != "" {
		if raw == "last" {
			page = -1
		} else {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				return nil, nil, ErrInvalidPage
			}
			page = n
		}
	}

	var count int64
	if err := query.Session(&gorm.Session{}).Count(&count).Error; err != nil {
		return nil, nil, err
	}

	lastPage := int((count + int64(pageSize) - 1) / int64(pageSize))
	if lastPage == 0 {
		lastPage = 1
	}
	if page == -1 {
		page = lastPage
	}
	if page > lastPage {
		return nil, nil, ErrInvalidPage
	}

	p := &Page{Count: count}
	if page < lastPage {
		p.Next = pageLink(c, page+1)
	}
	if page > 1 {
		p.Previous = pageLink(c, page-1)
	}

	limited := query.Session(&gorm.Session{}).Limit(pageSize).Offset((page - 1) * pageSize)
	return limited, p, nil
}

func pageLink(c *gin.Context, page int) *string {
	u := url.URL{
		Scheme: "http",
		Host:   c.Request.Host,
		Path:   c.Request.URL.Path,
	}
	if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
		u.Scheme = "https"
	}
	q := c.Request.URL.Query()
	if page == 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(page))
	}
	u.RawQuery = q.Encode()
	link := u.String()
	return &link
}
