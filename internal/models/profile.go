package models

// Profile is the biography document that feeds every non-project section
type Profile struct {
	Personal     Personal      `json:"personal"`
	Experience   []Experience  `json:"experience"`
	Education    []Education   `json:"education"`
	Publications []Publication `json:"publications"`
}

// Personal holds the owner's identity and contact details
type Personal struct {
	Name         string `json:"name"`
	Email        string `json:"email,omitempty"`
	Location     string `json:"location,omitempty"`
	ProfileImage string `json:"profileImage,omitempty"`
	GitHub       string `json:"github,omitempty"`
	LinkedIn     string `json:"linkedin,omitempty"`
}

// Experience is one position in the work history timeline
type Experience struct {
	ID           string   `json:"id"`
	Company      string   `json:"company"`
	Position     string   `json:"position"`
	Duration     string   `json:"duration"`
	Location     string   `json:"location,omitempty"`
	Description  string   `json:"description,omitempty"`
	Highlights   []string `json:"highlights,omitempty"`
	Technologies []string `json:"technologies,omitempty"`
}

// Education is one degree or program
type Education struct {
	ID          string   `json:"id"`
	Institution string   `json:"institution"`
	Degree      string   `json:"degree"`
	Duration    string   `json:"duration"`
	Grade       string   `json:"grade,omitempty"`
	Location    string   `json:"location,omitempty"`
	Skills      []string `json:"skills,omitempty"`
	Coursework  []string `json:"coursework,omitempty"`
}

// Publication is an article or paper
type Publication struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Abstract string   `json:"abstract,omitempty"`
	Journal  string   `json:"journal,omitempty"`
	Date     string   `json:"date,omitempty"`
	URL      string   `json:"url,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	Type     string   `json:"type,omitempty"`
	ReadTime string   `json:"readTime,omitempty"`
	Featured bool     `json:"featured"`
}
