package ingestion

import (
	"regexp"
	"strings"

	"github.com/jonathan/jobtrail/internal/types"
)

// Fallbacks used when an imported email yields no title or company.
const (
	UntitledPosition = "Untitled Position"
	UnknownCompany   = "Unknown Company"
)

// ExtractedJob holds the fields recovered from an email. Empty means not found.
type ExtractedJob struct {
	Title       string          `json:"title,omitempty"`
	Company     string          `json:"company,omitempty"`
	Location    string          `json:"location,omitempty"`
	URL         string          `json:"url,omitempty"`
	SalaryRange string          `json:"salary_range,omitempty"`
	Source      types.JobSource `json:"source"`
}

// pattern pairs a regexp with the submatch holding the value; 0 is the whole match.
type pattern struct {
	re    *regexp.Regexp
	group int
}

const amount = `\d{1,3}(?:,\d{3})*(?:\.\d{1,2})?\s*[kK]?`

var (
	titlePatterns = []pattern{
		{regexp.MustCompile(`(?i)(?:Senior|Lead|Principal|Staff|Junior|Head|VP|Chief)\s+(?:Product|UX|UI|Engineering|Tech|Software|Full\s*Stack|Frontend|Backend|Data)\s+(?:Manager|Designer|Engineer|Lead|Owner|Director|Developer|Specialist|Architect)`), 0},
		{regexp.MustCompile(`(?i)(?:Product|UX/UI|UX)\s+(?:Manager|Designer|Lead|Owner|Director)`), 0},
		{regexp.MustCompile(`(?i)((?:Senior|Lead|Principal|Staff)\s+[A-Z][a-zA-Z\s&]+?)(?:\s*[-–|]|\s*(?:role|position|job|opportunity)|$)`), 1},
	}

	companyPatterns = []pattern{
		{regexp.MustCompile(`(?i)(?:^|\s)(?:joining\s+the\s+team\s+at|joining|at|@)\s+([A-Z][a-zA-Z\s&'’-]{2,30}?)(?:\s*[-–|.,]|\s+(?:role|position|job|looking|seeking|hiring)|$)`), 1},
		{regexp.MustCompile(`(?:role|position|opportunity)\s+(?:at|with|for)\s+([A-Z][a-zA-Z\s&'’-]{2,30}?)(?:\.|,|\s*[-–]|$)`), 1},
		{regexp.MustCompile(`(?i)([A-Z][a-zA-Z\s&'’-]{2,30}?)\s+(?:is|are)\s+(?:hiring|looking|seeking|recruiting|building|growing|expanding)`), 1},
	}

	locationPatterns = []pattern{
		{regexp.MustCompile(`(?i)(?:located\s+in|based|located|location:?)\s*(?:in|at|near)?\s+([A-Z][a-zA-Z\s-]+?)(?:\.|,|\s*[-–]|\s+(?:remote|hybrid|on-site|onsite)|$)`), 1},
		{regexp.MustCompile(`(?i)\b(?:fully\s*remote|partially\s*remote|remote|hybrid|on-site|onsite)\b`), 0},
		{regexp.MustCompile(`(?i)\b(?:London|New\s+York|San\s+Francisco|Berlin|Paris|Amsterdam|Tokyo|Singapore|Hong\s+Kong|Dublin|Stockholm|Barcelona|Madrid|Rome|Munich|Zurich|Vienna|Brussels|Copenhagen|Oslo|Helsinki|Warsaw|Prague|Budapest|Bucharest|Athens|Lisbon|Porto|Milan|Manchester|Birmingham|Leeds|Edinburgh|Glasgow|Bristol|Liverpool|Sheffield|Newcastle|Belfast|Cardiff|Nottingham|Leicester|Brighton|Oxford|Cambridge|Reading|Milton\s+Keynes)\b`), 0},
	}

	urlPatterns = []pattern{
		{regexp.MustCompile(`(?i)https?://(?:www\.)?(?:linkedin\.com|indeed\.com|glassdoor\.com|monster\.com|totaljobs\.com|reed\.co\.uk|cwjobs\.co\.uk|jobsite\.co\.uk|cv-library\.co\.uk)\S+`), 0},
		{regexp.MustCompile(`(?i)https?://\S+`), 0},
	}

	salaryPatterns = []pattern{
		{regexp.MustCompile(`[£$€]\s*` + amount + `(?:\s*(?:-|–|to)\s*[£$€]?\s*` + amount + `)?`), 0},
		{regexp.MustCompile(`(?i)(?:salary|pay|compensation|remuneration):?\s*([£$€]?\s*\d+(?:,\d{3})*(?:\.\d{1,2})?\s*k?(?:\s*(?:-|–|to)\s*[£$€]?\s*\d+(?:,\d{3})*(?:\.\d{1,2})?\s*k?)?)`), 1},
		{regexp.MustCompile(`(?i)` + amount + `\s*(?:per|/)\s*(?:year|annum|annually|hour|month|day)(?:\s*(?:GBP|USD|EUR))?`), 0},
	}
)

// ParseJobEmail extracts job details from plain email text. Each field takes the first
// pattern that matches; source is always email.
func ParseJobEmail(text string) ExtractedJob {
	flat := flatten(text)
	return ExtractedJob{
		Title:       firstMatch(flat, titlePatterns),
		Company:     firstMatch(flat, companyPatterns),
		Location:    firstMatch(flat, locationPatterns),
		URL:         strings.TrimRight(firstMatch(flat, urlPatterns), ".,;:)]>\"'"),
		SalaryRange: firstMatch(flat, salaryPatterns),
		Source:      types.JobSourceEmail,
	}
}

// ParseJobEmailHTML converts an HTML body to text and parses it.
func ParseJobEmailHTML(html string) (ExtractedJob, error) {
	text, err := HTMLToText(html)
	if err != nil {
		return ExtractedJob{}, err
	}
	return ParseJobEmail(text), nil
}

// CreateRequest builds a wishlist job request, substituting fallbacks for a missing
// title or company.
func (e ExtractedJob) CreateRequest() *types.CreateJobRequest {
	req := &types.CreateJobRequest{
		Title:   e.Title,
		Company: e.Company,
		Status:  types.JobStatusWishlist,
		Source:  types.JobSourceEmail,
	}
	if req.Title == "" {
		req.Title = UntitledPosition
	}
	if req.Company == "" {
		req.Company = UnknownCompany
	}
	req.Location = optional(e.Location)
	req.URL = optional(e.URL)
	req.SalaryRange = optional(e.SalaryRange)
	return req
}

func firstMatch(text string, patterns []pattern) string {
	for _, p := range patterns {
		m := p.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if v := strings.TrimSpace(m[p.group]); v != "" {
			return v
		}
	}
	return ""
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
