package station

import (
	"regexp"
	"strings"
)

// AddressNotAvailable is the sentinel returned when no usable address can
// be assembled from provider tags.
const AddressNotAvailable = "Address not available"

const (
	defaultBrand   = "Unknown"
	defaultName    = "Fuel Station"
	defaultSuffix  = "Service Station"
	unknownOpening = "Unknown"
)

// brandSuffixes maps a recognized brand to the venue-type suffix appended
// to cleaned station names.
var brandSuffixes = map[string]string{
	"Indian Oil":          "Petrol Pump",
	"IOCL":                "Petrol Pump",
	"Hindustan Petroleum": "Petrol Pump",
	"HPCL":                "Petrol Pump",
	"HP":                  "Petrol Pump",
	"Bharat Petroleum":    "Petrol Pump",
	"BPCL":                "Petrol Pump",
	"Reliance":            "Petrol Pump",
	"Shell":               "Service Station",
	"Essar":               "Service Station",
	"Nayara":              "Energy Station",
}

// brandNames maps a brand to its canonical chain name, used when nothing
// else about the station is known.
var brandNames = map[string]string{
	"Indian Oil":          "Indian Oil Petrol Pump",
	"IOCL":                "Indian Oil Petrol Pump",
	"Hindustan Petroleum": "HP Petrol Pump",
	"HPCL":                "HP Petrol Pump",
	"HP":                  "HP Petrol Pump",
	"Bharat Petroleum":    "BPCL Petrol Pump",
	"BPCL":                "BPCL Petrol Pump",
	"Reliance":            "Reliance Petrol Pump",
	"Shell":               "Shell Service Station",
	"Essar":               "Essar Service Station",
	"Nayara":              "Nayara Energy Station",
}

// knownBrands is matched by substring against free-text display names.
var knownBrands = []string{
	"Shell", "BP", "Exxon", "Chevron", "Total",
	"Indian Oil", "HP", "Reliance", "BPCL", "HPCL",
}

var (
	completeNameRe = regexp.MustCompile(`(?i)^[a-z][a-z]+.*(petrol|service|station|bunk|petroleum|oil|energy|petroleums)`)
	bareAcronymRe  = regexp.MustCompile(`(?i)^(HP|BP|IOCL|HPCL|BPCL)$`)
	businessEndRe  = regexp.MustCompile(`(?i)(petroleum|petroleums|service|station|bunk|oil|energy)$`)
	honorificRe    = regexp.MustCompile(`(?i)^(Sri|Shri|Mr\.?|Mrs\.?)\s+`)
	genericEndRe   = regexp.MustCompile(`(?i)\s+(petrol\s+pump|service\s+station|fuel\s+station|petrol\s+bunk)$`)
)

// NormalizeStation derives a display name and brand from raw provider tags
// and an optional externally resolved business name. It always returns a
// non-empty name; the brand may be "Unknown". The result is a cosmetic
// heuristic, not a registry lookup.
func NormalizeStation(tags map[string]string, businessName string) (string, string) {
	if len(tags) == 0 && businessName == "" {
		return defaultName, defaultBrand
	}

	brand := tags["brand"]
	if brand == "" {
		brand = tags["operator"]
	}
	if brand == "" {
		brand = defaultBrand
	}

	name := businessName
	if name == "" {
		name = tags["name"]
	}

	// A resolved business name takes priority over tag data.
	if businessName != "" {
		if completeNameRe.MatchString(businessName) {
			return businessName, brand
		}

		cleaned := cleanStationName(businessName, brand)
		if len(cleaned) > 2 && !bareAcronymRe.MatchString(cleaned) {
			if businessEndRe.MatchString(cleaned) {
				return cleaned, brand
			}
			return cleaned + " " + brandSuffix(brand), brand
		}
	}

	if name != "" && name != brand {
		lower := strings.ToLower(name)
		if strings.Contains(lower, "petrol") ||
			strings.Contains(lower, "fuel") ||
			strings.Contains(lower, "station") ||
			strings.Contains(lower, "service") ||
			strings.Contains(lower, "petroleum") {
			return name, brand
		}
		return name + " " + brandSuffix(brand), brand
	}

	return brandName(brand), brand
}

func brandSuffix(brand string) string {
	if suffix, ok := brandSuffixes[brand]; ok {
		return suffix
	}
	return defaultSuffix
}

func brandName(brand string) string {
	if name, ok := brandNames[brand]; ok {
		return name
	}
	if brand != defaultBrand {
		return brand + " " + defaultSuffix
	}
	return defaultName
}

// cleanStationName strips a leading brand repeat, honorific prefixes and
// trailing generic suffixes, then title-cases each word.
func cleanStationName(name, brand string) string {
	cleaned := strings.TrimSpace(name)

	brandPrefixRe := regexp.MustCompile(`(?i)^` + regexp.QuoteMeta(brand) + `\s+`)
	cleaned = strings.TrimSpace(brandPrefixRe.ReplaceAllString(cleaned, ""))
	cleaned = strings.TrimSpace(honorificRe.ReplaceAllString(cleaned, ""))
	cleaned = strings.TrimSpace(genericEndRe.ReplaceAllString(cleaned, ""))

	words := strings.Fields(cleaned)
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
	}
	return strings.Join(words, " ")
}

// ExtractBrand matches a free-text display name against the known chain
// list, returning "Unknown" when nothing matches.
func ExtractBrand(displayName string) string {
	upper := strings.ToUpper(displayName)
	for _, brand := range knownBrands {
		if strings.Contains(upper, strings.ToUpper(brand)) {
			return brand
		}
	}
	return defaultBrand
}

// ExtractFuelTypes reads the boolean fuel:* tag flags. When no flag is
// present the station is assumed to carry petrol and diesel; that default
// is an assumption, not a detected fact.
func ExtractFuelTypes(tags map[string]string) []string {
	var fuelTypes []string
	if tags["fuel:petrol"] == "yes" {
		fuelTypes = append(fuelTypes, "Petrol")
	}
	if tags["fuel:diesel"] == "yes" {
		fuelTypes = append(fuelTypes, "Diesel")
	}
	if tags["fuel:cng"] == "yes" {
		fuelTypes = append(fuelTypes, "CNG")
	}
	if tags["fuel:lpg"] == "yes" {
		fuelTypes = append(fuelTypes, "LPG")
	}
	if tags["fuel:electric"] == "yes" {
		fuelTypes = append(fuelTypes, "Electric")
	}

	if len(fuelTypes) == 0 {
		return []string{"Petrol", "Diesel"}
	}
	return fuelTypes
}

// FormatAddress assembles a human-readable address from structured OSM
// address tags, falling back to looser location hints and finally to the
// AddressNotAvailable sentinel.
func FormatAddress(tags map[string]string) string {
	if len(tags) == 0 {
		return AddressNotAvailable
	}

	var parts []string
	for _, key := range []string{
		"addr:housenumber", "addr:street", "addr:suburb", "addr:city",
		"addr:district", "addr:state", "addr:postcode",
	} {
		if v := tags[key]; v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) >= 2 {
		return strings.Join(parts, ", ")
	}

	var loose []string
	if v := tags["addr:street"]; v != "" {
		loose = append(loose, v)
	}
	if v := tags["addr:city"]; v != "" {
		loose = append(loose, v)
	}
	if v := tags["place"]; v != "" {
		loose = append(loose, v)
	}
	if v := tags["highway"]; v != "" {
		loose = append(loose, v+" Highway")
	}
	if v := tags["neighbourhood"]; v != "" {
		loose = append(loose, v)
	}
	if len(loose) > 0 {
		return strings.Join(loose, ", ")
	}

	return AddressNotAvailable
}
