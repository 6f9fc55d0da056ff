package identity

import "strings"

// StateNames are Indian state and union territory names as they appear in
// document addresses, lower case
var StateNames = []string{
	"andhra pradesh", "arunachal pradesh", "assam", "bihar", "chhattisgarh", "goa", "gujarat",
	"haryana", "himachal pradesh", "jharkhand", "karnataka", "kerala", "madhya pradesh",
	"maharashtra", "manipur", "meghalaya", "mizoram", "nagaland", "odisha", "punjab", "rajasthan",
	"sikkim", "tamil nadu", "telangana", "tripura", "uttar pradesh", "uttarakhand", "west bengal",
	"delhi", "jammu and kashmir", "ladakh", "puducherry", "chandigarh", "lakshadweep",
	"andaman and nicobar islands", "dadra and nagar haveli and daman and diu",
	"महाराष्ट्र", "उत्तर प्रदेश", "मध्य प्रदेश", "बिहार", "राजस्थान", "गुजरात", "दिल्ली",
}

// AddressWords are address vocabulary, lower case
var AddressWords = []string{
	"address", "compound", "chawl", "road", "street", "lane", "plot", "flat", "building",
	"society", "nagar", "colony", "area", "sector", "phase", "wing", "floor", "room", "house",
	"pin", "code", "vtc", "district", "state", "near", "opp", "opposite", "mandir", "chs",
	"west", "east", "north", "south", "po", "post", "tehsil", "taluka", "village", "city",
}

var institutionalWords = []string{
	"unique", "identification", "authority", "india", "government", "aadhaar", "aadhar",
	"uidai", "enrolment", "enrollment", "details", "signature", "digitally", "signed",
	"download", "downloaded", "issued", "issue", "date", "mobile", "print", "valid", "vid",
	"dob", "birth", "year", "gender", "male", "female", "to", "help", "proof", "identity",
	"citizenship", "number", "virtual",
}

// Denylist is a case-insensitive set of words and phrases that never appear
// in a person's name. Phrases are stored with single spaces between words.
type Denylist map[string]struct{}

// NewDenylist returns the built-in denylist extended with extra words.
// Multi-word state names are kept as phrases so their parts stay usable in
// names ("Tamil Selvi" but not "Tamil Nadu").
func NewDenylist(extra ...string) Denylist {
	d := make(Denylist)
	for _, group := range [][]string{institutionalWords, AddressWords, StateNames, extra} {
		d.add(group...)
	}
	return d
}

func (d Denylist) add(words ...string) {
	for _, w := range words {
		if key := denyKey(w); key != "" {
			d[key] = struct{}{}
		}
	}
}

func denyKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// Contains reports whether word, or the phrase, is denylisted
func (d Denylist) Contains(word string) bool {
	_, ok := d[denyKey(word)]
	return ok
}

// Match returns the number of words, starting at words[i], covered by the
// longest denylisted word or phrase, or 0 if none starts there
func (d Denylist) Match(words []string, i int) int {
	for n := len(words) - i; n > 0; n-- {
		if d.Contains(strings.Join(words[i:i+n], " ")) {
			return n
		}
	}
	return 0
}

// With returns a copy of d extended with words
func (d Denylist) With(words ...string) Denylist {
	out := make(Denylist, len(d)+len(words))
	for w := range d {
		out[w] = struct{}{}
	}
	out.add(words...)
	return out
}
