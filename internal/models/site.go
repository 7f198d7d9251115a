package models

type Country struct {
	ID   int    `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
	// OpsEmail is CC'd on transfer notifications originating in this country.
	OpsEmail string `json:"ops_email,omitempty"`
}

type Site struct {
	ID       int    `json:"id"`
	SiteCode string `json:"site_code"`
	Name     string `json:"name"`
	CityName string `json:"city_name"`
	Acronym  string `json:"acronym"`
	// IsDead marks a site inactive; dead sites are excluded from stock
	// status queries but their history remains readable.
	IsDead    bool `json:"is_dead"`
	CountryID int  `json:"country_id"`
}

type SiteOption struct {
	SiteID   int    `json:"site_id"`
	SiteName string `json:"site_name"`
}
