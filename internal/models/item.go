package models

type Item struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Unit       string `json:"unit"`
	CategoryID int    `json:"category_id"`
}

type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type CostCode struct {
	ID   int    `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

type Subcontractor struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	CountryID int    `json:"country_id"` // 0 = available in every country
}

// SubContractNumber ties a subcontractor to a contract at a specific site.
type SubContractNumber struct {
	ID             int    `json:"id"`
	SubID          int    `json:"sub_id"`
	SiteID         int    `json:"site_id"`
	ContractNumber string `json:"contract_number"`
}

type ItemOption struct {
	Value string `json:"value"`
	Text  string `json:"text"`
}
