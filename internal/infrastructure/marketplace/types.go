package marketplace

// tokenResponse is the OAuth client-credentials grant response.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// ReportItem is one row of the autoload report: the marketplace's view of a
// listing uploaded under our article.
type ReportItem struct {
	Article       string `json:"ad_id"`
	MarketplaceID string `json:"item_id"`
	Status        string `json:"status"`
	URL           string `json:"url"`
}

// IsActive reports whether the listing is live; only then is its
// marketplace id worth persisting.
func (i ReportItem) IsActive() bool {
	return i.Status == "active"
}

type reportItemsResponse struct {
	Items []ReportItem `json:"items"`
	Meta  struct {
		Pages int `json:"pages"`
		Page  int `json:"page"`
	} `json:"meta"`
}

type priceUpdateRequest struct {
	Price int64 `json:"price"`
}

type stockUpdateRequest struct {
	Stocks []stockUpdateItem `json:"stocks"`
}

type stockUpdateItem struct {
	ExternalID string `json:"external_id"`
	ItemID     string `json:"item_id"`
	Quantity   int64  `json:"quantity"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
