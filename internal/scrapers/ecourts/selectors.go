package ecourts

// MatchBy decides how a select strategy picks its option.
type MatchBy string

const (
	MATCH_VALUE MatchBy = "value"
	MATCH_LABEL MatchBy = "label"
)

// SelectStrategy is one way of selecting an option in a dropdown, strategies
// are tried in order until one succeeds.
type SelectStrategy struct {
	Selector string  `json:"selector"`
	By       MatchBy `json:"by"`
}

// Selectors contains every piece of the portal's DOM that the driver and the
// extractor depend on. The portal is not under our control, when its layout
// changes only this struct (or its config override) should need to change.
type Selectors struct {
	CaseStatusLink string           `json:"case_status_link"`
	CaseType       []SelectStrategy `json:"case_type"`
	CaseNumber     string           `json:"case_number"`
	FilingYear     string           `json:"filing_year"`
	Captcha        string           `json:"captcha"`
	CaptchaAnswer  string           `json:"captcha_answer"`
	Submit         string           `json:"submit"`

	NotFoundMarkers  []string `json:"not_found_markers"`
	PetitionerLabel  string   `json:"petitioner_label"`
	RespondentLabel  string   `json:"respondent_label"`
	FilingDateLabel  string   `json:"filing_date_label"`
	NextHearingLabel string   `json:"next_hearing_label"`
	OrderRows        string   `json:"order_rows"`
	OrderLink        string   `json:"order_link"`
	OrderDate        string   `json:"order_date"`
}

func DefaultSelectors() Selectors {
	return Selectors{
		CaseStatusLink: `text="Case Status"`,
		CaseType: []SelectStrategy{
			{Selector: "#case_type", By: MATCH_VALUE},
			{Selector: `select[name="case_type_select_name"]`, By: MATCH_LABEL},
		},
		CaseNumber:    "#case_no",
		FilingYear:    "#year",
		Captcha:       "#captcha",
		CaptchaAnswer: "#captcha_code",
		Submit:        `input[type="submit"][value="Search"]`,

		NotFoundMarkers:  []string{"No case found", "No record found"},
		PetitionerLabel:  "Petitioner Name",
		RespondentLabel:  "Respondent Name",
		FilingDateLabel:  "Filing Date",
		NextHearingLabel: "Next Hearing Date",
		OrderRows:        "table.orders-table tbody tr",
		OrderLink:        `a[href$=".pdf"]`,
		OrderDate:        "td.order-date",
	}
}
