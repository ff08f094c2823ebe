package cvtext

import (
	"regexp"
	"strings"
)

// SectionType identifies a CV section recognized by its header.
type SectionType string

const (
	SectionSummary        SectionType = "summary"
	SectionExperience     SectionType = "experience"
	SectionEducation      SectionType = "education"
	SectionSkills         SectionType = "skills"
	SectionLanguages      SectionType = "languages"
	SectionCertifications SectionType = "certifications"
	SectionProjects       SectionType = "projects"
	SectionAwards         SectionType = "awards"
	SectionVolunteer      SectionType = "volunteer"
	SectionReferences     SectionType = "references"
	SectionInterests      SectionType = "interests"
	SectionContact        SectionType = "contact"
)

// maxHeaderRunes bounds how long a line can be and still count as a section header.
const maxHeaderRunes = 50

// sectionVocabulary is checked in order; the first matching keyword wins, so
// "Language Skills" lands in languages and "Work Experience" in experience.
var sectionVocabulary = []struct {
	Type     SectionType
	Keywords []string
}{
	{SectionSummary, []string{"summary", "profile", "about me", "objective", "özet", "profil", "hakkımda", "kariyer hedefi", "ön yazı"}},
	{SectionExperience, []string{"experience", "employment", "work history", "career history", "deneyim", "tecrübe", "iş geçmişi", "çalışma geçmişi"}},
	{SectionEducation, []string{"education", "academic", "qualifications", "eğitim", "öğrenim"}},
	{SectionLanguages, []string{"languages", "language skills", "diller", "yabancı dil"}},
	{SectionSkills, []string{"skills", "competencies", "expertise", "technologies", "yetenekler", "beceriler", "yetkinlikler", "teknik bilgiler"}},
	{SectionCertifications, []string{"certification", "certificates", "licenses", "sertifika", "belgeler"}},
	{SectionProjects, []string{"projects", "projeler"}},
	{SectionAwards, []string{"awards", "honors", "achievements", "ödüller", "başarılar"}},
	{SectionVolunteer, []string{"volunteer", "gönüllü"}},
	{SectionReferences, []string{"references", "referanslar", "referans"}},
	{SectionInterests, []string{"interests", "hobbies", "ilgi alanları", "hobiler"}},
	{SectionContact, []string{"contact", "personal information", "personal details", "iletişim", "kişisel bilgiler"}},
}

// contactLabels maps a contact field to its markdown label.
var contactLabels = map[ContactField]string{
	ContactEmail:    "Email",
	ContactPhone:    "Telefon",
	ContactLinkedIn: "LinkedIn",
	ContactGitHub:   "GitHub",
	ContactWebsite:  "Website",
}

var monthNames = []string{
	"january", "february", "march", "april", "may", "june", "july", "august",
	"september", "october", "november", "december",
	"jan", "feb", "mar", "apr", "jun", "jul", "aug", "sep", "sept", "oct", "nov", "dec",
	"ocak", "şubat", "mart", "nisan", "mayıs", "haziran", "temmuz", "ağustos",
	"eylül", "ekim", "kasım", "aralık",
}

var presentMarkers = []string{
	"present", "current", "now", "today", "ongoing",
	"günümüz", "günümüze", "halen", "hâlâ", "devam ediyor", "şu an", "hala",
}

// bulletGlyphs may be glued to the text; ASCII markers need a following space.
const bulletGlyphs = "•▪◦●‣·○■□►✓➢➤❖◆"

// techVocabulary holds single-token keywords; every entry is longer than two runes.
var techVocabulary = []string{
	"python", "java", "javascript", "typescript", "golang", "rust", "kotlin", "swift",
	"c++", "php", "ruby", "scala", "sql", "postgresql", "mysql", "mongodb", "redis",
	"docker", "kubernetes", "terraform", "aws", "azure", "gcp", "linux", "git", "react",
	"angular", "vue", "node", "django", "flask", "spring", "graphql", "rest", "grpc",
	"kafka", "rabbitmq", "elasticsearch", "html", "css", "figma", "jira", "scrum", "agile",
	"devops", "jenkins", "ansible", "excel", "tableau", "pandas", "numpy", "tensorflow",
	"pytorch", "microservices", "leadership", "communication", "teamwork", "management",
	"analytics", "sap", "salesforce",
	"yazılım", "liderlik", "iletişim", "analiz", "yönetim", "geliştirme", "muhasebe",
	"satış", "pazarlama", "raporlama",
}

// phraseVocabulary holds multi-word keywords matched against the token stream.
var phraseVocabulary = []string{
	"machine learning", "data analysis", "project management", "problem solving",
	"customer service", "continuous integration", "unit testing", "data science",
	"proje yönetimi", "takım çalışması", "veri analizi", "makine öğrenmesi", "müşteri ilişkileri",
}

var stopwords = []string{
	"the", "and", "for", "with", "from", "that", "this", "are", "was", "were", "have", "has",
	"had", "you", "your", "our", "their", "into", "over", "under", "about", "than", "then",
	"also", "such", "using", "used", "use", "per", "via", "all", "any", "more", "most",
	"other", "some", "its", "not", "but", "will", "can", "may", "who", "which", "what",
	"when", "where", "while", "within", "across", "based", "including", "etc",
	"ile", "için", "olarak", "gibi", "daha", "çok", "bir", "veya", "olan", "her", "kadar",
	"sonra", "önce", "üzerinde", "ayrıca", "değil", "ama", "fakat", "şirketi", "alanında",
}

var (
	foldedSections  []foldedSection
	techSet         = map[string]struct{}{}
	foldedPhrases   []string
	stopwordSet     = map[string]struct{}{}
	datePatterns    []*regexp.Regexp
	bulletPattern   = regexp.MustCompile(`^(?:[` + bulletGlyphs + `]\s*|[-*–—]\s+|\d{1,2}[.)]\s+)`)
	yearPattern     = regexp.MustCompile(`(?:19|20)\d{2}`)
	contactPrefixRe = regexp.MustCompile(`(?i)^(?:e-?mail|e-?posta|mail|phone|tel|telefon|gsm|mobile|cep|linkedin|github|web|website|portfolio)\s*[:：]\s*`)
)

type foldedSection struct {
	Type     SectionType
	Keywords []string
}

func init() {
	for _, s := range sectionVocabulary {
		fs := foldedSection{Type: s.Type}
		for _, k := range s.Keywords {
			fs.Keywords = append(fs.Keywords, fold(k))
		}
		foldedSections = append(foldedSections, fs)
	}
	for _, w := range techVocabulary {
		techSet[fold(w)] = struct{}{}
	}
	for _, p := range phraseVocabulary {
		foldedPhrases = append(foldedPhrases, fold(p))
	}
	for _, w := range stopwords {
		stopwordSet[fold(w)] = struct{}{}
	}
	for _, m := range monthNames {
		stopwordSet[fold(m)] = struct{}{}
	}
	for _, p := range presentMarkers {
		stopwordSet[fold(p)] = struct{}{}
	}

	months := make([]string, 0, len(monthNames))
	for _, m := range monthNames {
		months = append(months, regexp.QuoteMeta(fold(m)))
	}
	present := make([]string, 0, len(presentMarkers))
	for _, p := range presentMarkers {
		present = append(present, regexp.QuoteMeta(fold(p)))
	}
	monthAlt := strings.Join(months, "|")
	presentAlt := strings.Join(present, "|")
	year := `(?:19|20)\d{2}`
	// Markers must stand as whole words: "known" is not "now".
	presentEnd := `(?:` + presentAlt + `)(?:$|[^\p{L}])`
	datePatterns = []*regexp.Regexp{
		// 2019 - 2022, 2019 – present
		regexp.MustCompile(year + `\s*[-–—/]\s*(?:` + year + `|` + presentEnd + `)`),
		// March 2019, mar. 2019, Ocak 2020
		regexp.MustCompile(`(?:^|[^\p{L}])(?:` + monthAlt + `)\.?,?\s*` + year),
		// 03/2019, 3.2019
		regexp.MustCompile(`(?:^|[^\d])(?:0?[1-9]|1[0-2])[./-]` + year),
		// 2019 - ... (open-ended with a present marker anywhere after the year)
		regexp.MustCompile(year + `.*(?:^|[^\p{L}])` + presentEnd),
	}
}

// fold lowercases text for vocabulary matching, collapsing Turkish dotted and
// dotless i so that "EĞİTİM" and "YABANCI DİL" match their lowercase keywords.
func fold(s string) string {
	s = strings.ReplaceAll(s, "İ", "i")
	s = strings.ToLower(s)
	return strings.ReplaceAll(s, "ı", "i")
}
