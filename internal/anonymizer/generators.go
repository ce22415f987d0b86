package anonymizer

import (
	"fmt"
	"math/rand"

	"github.com/synthtab/synthtab/pkg/constants"
	"github.com/synthtab/synthtab/pkg/models"
)

// ValueGenerator produces one synthetic replacement for an original value.
// Generators draw exclusively from the provided source so runs seeded alike
// replay identically.
type ValueGenerator func(rng *rand.Rand, original string) string

var firstNamesEN = []string{
	"John", "Jane", "Michael", "Sarah", "David", "Emily", "James", "Emma",
	"Robert", "Olivia", "William", "Elizabeth", "Richard", "Jennifer",
	"Thomas", "Jessica", "Charles", "Amanda", "Christopher", "Ashley",
	"Daniel", "Stephanie", "Matthew", "Nicole", "Anthony", "Melissa",
}

var surnamesEN = []string{
	"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller",
	"Davis", "Martinez", "Wilson", "Anderson", "Taylor", "Thomas", "Moore",
	"Jackson", "Martin", "Lee", "Thompson", "White", "Harris", "Clark",
	"Lewis", "Robinson", "Walker", "Hall", "Young", "King", "Wright",
}

var firstNamesTR = []string{
	"Mehmet", "Ayşe", "Mustafa", "Fatma", "Ahmet", "Emine", "Ali", "Hatice",
	"Hüseyin", "Zeynep", "Hasan", "Elif", "İbrahim", "Meryem", "Osman",
	"Şerife", "Yusuf", "Sultan", "Murat", "Hanife", "Ömer", "Merve",
}

var surnamesTR = []string{
	"Yılmaz", "Kaya", "Demir", "Çelik", "Şahin", "Yıldız", "Yıldırım",
	"Öztürk", "Aydın", "Özdemir", "Arslan", "Doğan", "Kılıç", "Aslan",
	"Çetin", "Kara", "Koç", "Kurt", "Özkan", "Şimşek",
}

var streetsEN = []string{
	"Main St", "Oak Ave", "Maple Dr", "Park Blvd", "Elm Street", "Pine Road",
	"Cedar Lane", "Washington St", "Broadway", "Market St", "Church St",
	"Mill Road", "Lake Ave", "River Road", "Highland Ave", "Forest Dr",
	"Valley Road", "Sunset Blvd", "Spring St", "Garden Way",
}

var streetsTR = []string{
	"Atatürk Caddesi", "Cumhuriyet Caddesi", "İstiklal Caddesi",
	"Gazi Caddesi", "İnönü Caddesi", "Bağdat Caddesi", "Çınar Sokak",
	"Gül Sokak", "Zafer Sokak", "Barış Sokak", "Menekşe Sokak",
}

// Reserved domains only, per RFC 2606 and RFC 6761. Generated addresses can
// never route to a real mailbox.
var reservedDomains = []string{
	"example.com", "example.org", "example.net",
	"test.com", "test.org", "test.net",
}

func personNameGenerator(locale string) ValueGenerator {
	first, last := firstNamesEN, surnamesEN
	if locale == constants.LocaleTurkish {
		first, last = firstNamesTR, surnamesTR
	}
	return func(rng *rand.Rand, original string) string {
		return fmt.Sprintf("%s %s", first[rng.Intn(len(first))], last[rng.Intn(len(last))])
	}
}

func emailGenerator(rng *rand.Rand, original string) string {
	user := fmt.Sprintf("user%04d", rng.Intn(10000))
	domain := reservedDomains[rng.Intn(len(reservedDomains))]
	return fmt.Sprintf("%s@%s", user, domain)
}

func phoneGenerator(locale string) ValueGenerator {
	if locale == constants.LocaleTurkish {
		return func(rng *rand.Rand, original string) string {
			// Turkish mobile prefix 5xx.
			return fmt.Sprintf("+90 5%02d %03d %04d",
				rng.Intn(100), 100+rng.Intn(900), 1000+rng.Intn(9000))
		}
	}
	return func(rng *rand.Rand, original string) string {
		areaCode := 200 + rng.Intn(800)
		exchange := 200 + rng.Intn(800)
		number := 1000 + rng.Intn(9000)
		return fmt.Sprintf("%d-%d-%d", areaCode, exchange, number)
	}
}

func nationalIDGenerator(locale string) ValueGenerator {
	if locale == constants.LocaleTurkish {
		return func(rng *rand.Rand, original string) string {
			// 11 digits, non-zero leading digit.
			return fmt.Sprintf("%d%010d", 1+rng.Intn(9), rng.Int63n(10000000000))
		}
	}
	return func(rng *rand.Rand, original string) string {
		first := 100 + rng.Intn(800)
		second := 10 + rng.Intn(90)
		third := 1000 + rng.Intn(9000)
		return fmt.Sprintf("%03d-%02d-%04d", first, second, third)
	}
}

func addressGenerator(locale string) ValueGenerator {
	streets := streetsEN
	if locale == constants.LocaleTurkish {
		streets = streetsTR
	}
	return func(rng *rand.Rand, original string) string {
		number := 1 + rng.Intn(999)
		street := streets[rng.Intn(len(streets))]
		if locale == constants.LocaleTurkish {
			return fmt.Sprintf("%s No:%d", street, number)
		}
		return fmt.Sprintf("%d %s", number, street)
	}
}

// creditCardGenerator emits a Luhn-valid number so downstream format checks
// still pass on anonymized output.
func creditCardGenerator(rng *rand.Rand, original string) string {
	digits := make([]int, 16)
	digits[0] = 4
	for i := 1; i < 15; i++ {
		digits[i] = rng.Intn(10)
	}
	digits[15] = luhnCheckDigit(digits[:15])

	out := make([]byte, 0, 19)
	for i, d := range digits {
		if i > 0 && i%4 == 0 {
			out = append(out, '-')
		}
		out = append(out, byte('0'+d))
	}
	return string(out)
}

// luhnCheckDigit computes the final digit making the full number pass Luhn.
func luhnCheckDigit(digits []int) int {
	sum := 0
	double := true
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
	return (10 - sum%10) % 10
}

// generatorFor resolves the replacement generator for a PII type. The switch
// is exhaustive over the closed type set; unknown types report false so the
// caller can skip the column instead of corrupting it.
func generatorFor(piiType models.PIIType, locale string) (ValueGenerator, bool) {
	switch piiType {
	case models.PIITypePersonName:
		return personNameGenerator(locale), true
	case models.PIITypeEmail:
		return emailGenerator, true
	case models.PIITypePhone:
		return phoneGenerator(locale), true
	case models.PIITypeNationalID:
		return nationalIDGenerator(locale), true
	case models.PIITypeAddress:
		return addressGenerator(locale), true
	case models.PIITypeCreditCard:
		return creditCardGenerator, true
	default:
		return nil, false
	}
}
