package portal

import "github.com/aokihara/listing-engine/internal/driver"

// Portal paths relative to the configured base URL.
const (
	signInPath = "/signin"
	searchPath = "/listings/search"
)

// Sign-in controls.
var (
	emailField     = driver.ByCSS("email_field", `input[name="email"]`)
	continueButton = driver.ByCSS("continue_button", `#continue`)
	passwordField  = driver.ByCSS("password_field", `input[name="password"]`)
	signInButton   = driver.ByCSS("sign_in_button", `#signInSubmit`)
	otpField       = driver.ByCSS("otp_field", `input[name="otpCode"]`)
	otpSubmit      = driver.ByCSS("otp_submit_button", `#authSubmit`)
	accountConfirm = driver.ByCSS("account_confirm_button", `#accountSubmit`)
)

func accountTile(name string) driver.Selector {
	return driver.ByText("account_tile", ".account-tile", name)
}

func regionTile(name string) driver.Selector {
	return driver.ByText("region_tile", ".region-tile", name)
}

// Search and classification controls.
var (
	searchBox       = driver.ByCSS("search_box", `input[name="searchQuery"]`)
	searchButton    = driver.ByCSS("search_button", `#searchSubmit`)
	resultsRegion   = driver.ByCSS("results_region", `.search-results`)
	noResultsBanner = driver.ByCSS("no_results_banner", `.search-results .no-results`)
	resultRow       = driver.ByCSS("result_row", `.search-results .result-row`)
	brandBadge      = driver.ByCSS("brand_restriction_badge", `.brand-gate-badge`)
	offerOption     = driver.ByCSS("offer_option", `.listing-options .option-other`)
	standardCard    = driver.ByCSS("standard_listing_card", `.listing-cards .card-standard`)
	listButton      = driver.ByCSS("list_button", `button[name="listProduct"]`)
)

// Registration sub-page controls.
var (
	skuField            = driver.ByCSS("sku_field", `input[name="sku"]`)
	merchantFulfillment = driver.ByCSS("merchant_fulfillment_option", `input[name="fulfillment"][value="merchant"]`)
	stockField          = driver.ByCSS("stock_field", `input[name="quantity"]`)
	priceField          = driver.ByCSS("price_field", `input[name="price"]`)
	saveButton          = driver.ByCSS("save_button", `button[name="saveListing"]`)
	registerButton      = driver.ByCSS("register_button", `button[name="register"]`)
)
