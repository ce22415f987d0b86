package profiler

import (
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/synthtab/synthtab/pkg/constants"
	"github.com/synthtab/synthtab/pkg/models"
)

// Detection regexes. A cell is tested in priority order and counts toward at
// most one PII type.
var (
	emailPattern      = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phonePattern      = regexp.MustCompile(`^\+?[0-9]{0,3}[\s.\-]?\(?[0-9]{3}\)?[\s.\-]?[0-9]{3}[\s.\-]?[0-9]{2,4}$`)
	ssnPattern        = regexp.MustCompile(`^\d{3}-\d{2}-\d{4}$`)
	tcknPattern       = regexp.MustCompile(`^[1-9]\d{10}$`)
	creditCardPattern = regexp.MustCompile(`^(?:\d[ \-]?){13,19}$`)
	addressPattern    = regexp.MustCompile(`(?i)^\d+\s+[a-z0-9çğıöşü .'\-]+\s(street|st|avenue|ave|road|rd|boulevard|blvd|lane|ln|drive|dr|court|ct|way|place|pl|caddesi|cadde|sokak|sk|mahallesi|mah)\.?(\s|,|$)`)
	namePattern       = regexp.MustCompile(`^[A-ZÇĞİÖŞÜ][a-zçğıöşü'\-]+(\s[A-ZÇĞİÖŞÜ][a-zçğıöşü'\-]+){0,3}$`)
)

// firstNameLexicon backs person-name recognition. A candidate must both look
// like a name and contain at least one known given name.
var firstNameLexicon = map[string]bool{
	"james": true, "mary": true, "robert": true, "patricia": true,
	"john": true, "jennifer": true, "michael": true, "linda": true,
	"david": true, "elizabeth": true, "william": true, "barbara": true,
	"richard": true, "susan": true, "joseph": true, "jessica": true,
	"thomas": true, "sarah": true, "charles": true, "karen": true,
	"christopher": true, "lisa": true, "daniel": true, "nancy": true,
	"matthew": true, "betty": true, "anthony": true, "sandra": true,
	"mark": true, "margaret": true, "donald": true, "ashley": true,
	"steven": true, "kimberly": true, "andrew": true, "emily": true,
	"paul": true, "donna": true, "joshua": true, "michelle": true,
	"kenneth": true, "carol": true, "kevin": true, "amanda": true,
	"brian": true, "melissa": true, "george": true, "deborah": true,
	"timothy": true, "stephanie": true, "ronald": true, "rebecca": true,
	"jason": true, "sharon": true, "edward": true, "laura": true,
	"jeffrey": true, "cynthia": true, "ryan": true, "amy": true,
	"jacob": true, "kathleen": true, "gary": true, "angela": true,
	"nicholas": true, "shirley": true, "eric": true, "brenda": true,
	"jonathan": true, "anna": true, "stephen": true, "pamela": true,
	"larry": true, "nicole": true, "justin": true, "samantha": true,
	"scott": true, "katherine": true, "brandon": true, "christine": true,
	"benjamin": true, "helen": true, "samuel": true, "debra": true,
	"mehmet": true, "ayşe": true, "mustafa": true, "fatma": true,
	"ahmet": true, "emine": true, "ali": true, "hatice": true,
	"hüseyin": true, "zeynep": true, "hasan": true, "elif": true,
	"ibrahim": true, "meryem": true, "osman": true, "şerife": true,
	"yusuf": true, "sultan": true, "murat": true, "hanife": true,
}

// PIIDetectorConfig contains configuration for PII scanning.
type PIIDetectorConfig struct {
	SampleSize     int     `json:"sample_size"`
	MatchThreshold float64 `json:"match_threshold"`
	PreviewSamples int     `json:"preview_samples"`
}

// PIIDetector scans text and categorical columns for personally identifying
// values using regex and lexicon matching over a bounded sample.
type PIIDetector struct {
	config *PIIDetectorConfig
	logger *logrus.Logger
}

// NewPIIDetector creates a new PII detector.
func NewPIIDetector(config *PIIDetectorConfig, logger *logrus.Logger) *PIIDetector {
	if config == nil {
		config = getDefaultPIIDetectorConfig()
	}
	if logger == nil {
		logger = logrus.New()
	}

	return &PIIDetector{
		config: config,
		logger: logger,
	}
}

// Detect scans every text-like column and returns findings for columns whose
// positive-match rate exceeds the configured threshold. Findings are ordered
// by column position. Detection is read-only and deterministic.
func (d *PIIDetector) Detect(table *models.Table) ([]*models.PIIFinding, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}

	var findings []*models.PIIFinding
	for _, col := range table.Columns {
		if col.Kind != models.KindText && col.Kind != models.KindCategorical {
			continue
		}
		if finding := d.scanColumn(col); finding != nil {
			findings = append(findings, finding)
		}
	}

	d.logger.WithFields(logrus.Fields{
		"columns_scanned": len(table.Columns),
		"findings":        len(findings),
	}).Info("PII scan completed")

	return findings, nil
}

func (d *PIIDetector) scanColumn(col *models.Column) *models.PIIFinding {
	sample := d.sampleValues(col)
	if len(sample) == 0 {
		return nil
	}

	matchCounts := make(map[models.PIIType]int)
	matched := 0
	var exemplars []string
	for _, value := range sample {
		piiType, ok := ClassifyValue(value)
		if !ok {
			continue
		}
		matchCounts[piiType]++
		matched++
		if len(exemplars) < d.config.PreviewSamples {
			exemplars = append(exemplars, value)
		}
	}

	rate := float64(matched) / float64(len(sample))
	if rate <= d.config.MatchThreshold {
		return nil
	}

	finding := &models.PIIFinding{
		ColumnName:  col.Name,
		Type:        dominantType(matchCounts),
		Confidence:  rate,
		SampleSize:  len(sample),
		MatchCounts: matchCounts,
	}
	for _, value := range exemplars {
		finding.Samples = append(finding.Samples, models.SamplePair{Original: value})
	}

	d.logger.WithFields(logrus.Fields{
		"column":     col.Name,
		"pii_type":   finding.Type,
		"confidence": finding.Confidence,
	}).Warn("PII detected in column")

	return finding
}

// sampleValues takes the first N non-null string values of a column.
func (d *PIIDetector) sampleValues(col *models.Column) []string {
	sample := make([]string, 0, d.config.SampleSize)
	for _, v := range col.Values {
		s, ok := v.(string)
		if !ok || s == "" {
			continue
		}
		sample = append(sample, s)
		if len(sample) >= d.config.SampleSize {
			break
		}
	}
	return sample
}

// ClassifyValue tests one value against all recognizers in priority order.
// Stricter patterns run first so a credit card number is never reported as a
// phone number.
func ClassifyValue(value string) (models.PIIType, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", false
	}

	switch {
	case emailPattern.MatchString(trimmed):
		return models.PIITypeEmail, true
	case creditCardPattern.MatchString(trimmed) && luhnValid(trimmed):
		return models.PIITypeCreditCard, true
	case ssnPattern.MatchString(trimmed), tcknPattern.MatchString(trimmed):
		return models.PIITypeNationalID, true
	case phonePattern.MatchString(trimmed) && digitCount(trimmed) >= 7:
		return models.PIITypePhone, true
	case addressPattern.MatchString(trimmed):
		return models.PIITypeAddress, true
	case looksLikePersonName(trimmed):
		return models.PIITypePersonName, true
	}
	return "", false
}

func looksLikePersonName(value string) bool {
	if !namePattern.MatchString(value) {
		return false
	}
	for _, token := range strings.Fields(value) {
		if firstNameLexicon[strings.ToLower(token)] {
			return true
		}
	}
	return false
}

// luhnValid checks the Luhn checksum of a digit string, ignoring separators.
func luhnValid(value string) bool {
	digits := make([]int, 0, len(value))
	for _, r := range value {
		if r >= '0' && r <= '9' {
			digits = append(digits, int(r-'0'))
		}
	}
	if len(digits) < 13 || len(digits) > 19 {
		return false
	}

	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := digits[i]
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

func digitCount(value string) int {
	count := 0
	for _, r := range value {
		if r >= '0' && r <= '9' {
			count++
		}
	}
	return count
}

// dominantType picks the most frequent matched type, breaking ties by the
// fixed recognizer priority order.
func dominantType(counts map[models.PIIType]int) models.PIIType {
	priority := []models.PIIType{
		models.PIITypeEmail,
		models.PIITypeCreditCard,
		models.PIITypeNationalID,
		models.PIITypePhone,
		models.PIITypeAddress,
		models.PIITypePersonName,
	}
	best := models.PIITypeOther
	bestCount := 0
	for _, t := range priority {
		if counts[t] > bestCount {
			best = t
			bestCount = counts[t]
		}
	}
	return best
}

func getDefaultPIIDetectorConfig() *PIIDetectorConfig {
	return &PIIDetectorConfig{
		SampleSize:     constants.DefaultPIISampleSize,
		MatchThreshold: constants.PIIMatchThreshold,
		PreviewSamples: constants.PIIPreviewSamples,
	}
}
