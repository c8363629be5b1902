package sheets

import "time"

// Inclusion names an optional element returned with sheet listings.
type Inclusion string

// Inclusions accepted by ListSheets.
const (
	IncludeSheetVersion Inclusion = "sheetVersion"
	IncludeSource       Inclusion = "source"
	IncludeOwnerInfo    Inclusion = "ownerInfo"
)

// Pagination selects a page of a list call. IncludeAll returns every item and
// makes Page and PageSize irrelevant.
type Pagination struct {
	Page       int  `validate:"gte=0"`
	PageSize   int  `validate:"gte=0,lte=10000"`
	IncludeAll bool
}

// PaginatedResult is a page of items as returned by list endpoints.
type PaginatedResult[T any] struct {
	PageNumber int `json:"pageNumber"`
	PageSize   int `json:"pageSize"`
	TotalPages int `json:"totalPages"`
	TotalCount int `json:"totalCount"`
	Data       []T `json:"data"`
}

// Sheet is the subset of sheet attributes exposed by the SDK.
type Sheet struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	AccessLevel   string     `json:"accessLevel,omitempty"`
	Permalink     string     `json:"permalink,omitempty"`
	Version       *int       `json:"version,omitempty"`
	TotalRowCount *int       `json:"totalRowCount,omitempty"`
	Owner         string     `json:"owner,omitempty"`
	CreatedAt     *time.Time `json:"createdAt,omitempty"`
	ModifiedAt    *time.Time `json:"modifiedAt,omitempty"`
}

// Attachment describes a file attached to a sheet.
type Attachment struct {
	ID             int64      `json:"id"`
	Name           string     `json:"name"`
	URL            string     `json:"url,omitempty"`
	AttachmentType string     `json:"attachmentType,omitempty"`
	MimeType       string     `json:"mimeType,omitempty"`
	SizeInKB       int64      `json:"sizeInKb,omitempty"`
	ParentType     string     `json:"parentType,omitempty"`
	ParentID       int64      `json:"parentId,omitempty"`
	CreatedAt      *time.Time `json:"createdAt,omitempty"`
}

// result is the envelope wrapping the outcome of write operations.
type result[T any] struct {
	Message    string `json:"message"`
	ResultCode int    `json:"resultCode"`
	Result     T      `json:"result"`
	Version    *int   `json:"version,omitempty"`
}

type sheetVersion struct {
	Version int `json:"version"`
}
