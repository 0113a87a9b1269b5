package testdata

// Data types served by the get-<type>.py helper scripts.
const (
	TypeSummaries     = "summaries"
	TypeModules       = "modules"
	TypeBoardMembers  = "board-members"
	TypeGlossaryTerms = "glossary-terms"
)

// Summaries are grouped by language, then summary type, then audience.
type Summaries map[string]map[string]map[string][]Summary

// Summary is one PDQ summary with its boards.
type Summary struct {
	ID     int     `json:"id"`
	Title  string  `json:"title"`
	Boards []Board `json:"boards"`
}

// Board is a PDQ board. Current is only set for board memberships.
type Board struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Current bool   `json:"current,omitempty"`
}

// BoardMember is a board member document and the person it describes.
type BoardMember struct {
	ID     int     `json:"id"`
	Person Person  `json:"person"`
	Boards []Board `json:"boards"`
}

type Person struct {
	ID       int    `json:"id"`
	Surname  string `json:"surname"`
	Forename string `json:"forename"`
	Initials string `json:"initials"`
}

// GlossaryTerm is a glossary term name document.
type GlossaryTerm struct {
	ID           int           `json:"id"`
	EnglishName  string        `json:"english_name"`
	SpanishNames []SpanishName `json:"spanish_names"`
	ConceptID    int           `json:"concept_id"`
}

type SpanishName struct {
	Name      string `json:"name"`
	Alternate bool   `json:"alternate"`
}
