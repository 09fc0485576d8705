package openlibrary

import "fmt"

// CoverURL builds the large cover image URL for a cover id. The id is used
// as given, including the negative placeholders OpenLibrary keeps for
// removed covers.
func (c *Client) CoverURL(coverID int64) string {
	return fmt.Sprintf("%s/b/id/%d-L.jpg", c.coversURL, coverID)
}
