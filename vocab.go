package quizimages

import "fmt"

// Score magnitudes. Tuned by hand; only their relative order matters.
const (
	DisqualifiedScore = -1000

	ScoreCategoryTopicMatch  = 40
	ScoreCategoryOnlyMatch   = 12
	ScoreDiagramSignal       = 35
	ScoreDiagramMissing      = -30
	ScoreMapSignal           = 40
	ScoreMapMissing          = -40
	ScoreMapLegible          = 15
	ScoreMapIllegible        = -15
	ScorePeriodVocabulary    = 25
	ScoreMicrographSignal    = 30
	ScorePhotoSignal         = 10
	ScoreRiskBlacklist       = -80
	ScoreRiskCompensation    = 20
	ScoreStockPhoto          = -50
	ScorePopCulture          = -45
	ScoreEducational         = 15
	ScoreMustHaveHit         = 20
	ScoreQueryTermHit        = 6
	ScoreAvoidHit            = -35
	ScoreHighResolution      = 10
	ScoreLowResolution       = -25
	ScoreWikipediaProvenance = 15

	MinGoodPixels     = 800 // both sides at least this wide earn the resolution bonus
	MinLegiblePixels  = 250 // either side below this is penalised
	MinMapLegibleSide = 1000
)

// DefaultMinScore is the acceptance floor when no intent entry exists
const DefaultMinScore = 40

// IntentMinScores holds the global per-intent acceptance thresholds
var IntentMinScores = map[ImageIntent]int{
	IntentLabeledDiagram:         80,
	IntentDiagram:                70,
	IntentConceptDiagram:         60,
	IntentPhoto:                  50,
	IntentHistoricalIllustration: 60,
	IntentMap:                    70,
	IntentMicrograph:             60,
}

// SubjectMinScores overrides IntentMinScores per subject
var SubjectMinScores = map[string]map[ImageIntent]int{
	"biologie": {
		IntentLabeledDiagram: 100,
		IntentDiagram:        80,
		IntentMicrograph:     70,
	},
	"geschiedenis": {
		IntentHistoricalIllustration: 70,
		IntentMap:                    80,
	},
	"aardrijkskunde": {
		IntentMap:   90,
		IntentPhoto: 60,
	},
	"latijn": {
		IntentHistoricalIllustration: 65,
	},
}

// AcceptedMIMETypes is the image type allow-list
var AcceptedMIMETypes = map[string]bool{
	"image/jpeg":    true,
	"image/png":     true,
	"image/gif":     true,
	"image/svg+xml": true,
	"image/webp":    true,
	"image/tiff":    true,
}

// SubjectProfile carries per-subject defaults for repair briefs
type SubjectProfile struct {
	DefaultIntent ImageIntent
	DefaultRisk   RiskProfile
	QuerySuffix   string // appended to the relaxed repair query
}

var defaultSubjectProfile = SubjectProfile{
	DefaultIntent: IntentPhoto,
	DefaultRisk:   RiskNone,
}

// SubjectProfiles maps a normalized subject label to its profile
var SubjectProfiles = map[string]SubjectProfile{
	"biologie":       {DefaultIntent: IntentLabeledDiagram, DefaultRisk: RiskHumanVsAnimal, QuerySuffix: "diagram"},
	"geschiedenis":   {DefaultIntent: IntentHistoricalIllustration, DefaultRisk: RiskHistoricalVsModern, QuerySuffix: "illustration"},
	"aardrijkskunde": {DefaultIntent: IntentMap, DefaultRisk: RiskThematicVsTourist, QuerySuffix: "map"},
	"latijn":         {DefaultIntent: IntentHistoricalIllustration, DefaultRisk: RiskMythologyVsPopculture, QuerySuffix: "roman"},
	"grieks":         {DefaultIntent: IntentHistoricalIllustration, DefaultRisk: RiskMythologyVsPopculture, QuerySuffix: "greek"},
	"natuurkunde":    {DefaultIntent: IntentDiagram, DefaultRisk: RiskDiagramVsPhoto, QuerySuffix: "diagram"},
	"scheikunde":     {DefaultIntent: IntentDiagram, DefaultRisk: RiskDiagramVsPhoto, QuerySuffix: "diagram"},
}

// ProfileFor returns the profile of a subject, or a photo/none default
func ProfileFor(subject string) SubjectProfile {
	if p, ok := SubjectProfiles[normalizeSubject(subject)]; ok {
		return p
	}
	return defaultSubjectProfile
}

// RiskRule lists tokens that trigger a penalty and tokens that earn a bonus
type RiskRule struct {
	Blacklist    []string
	Compensation []string
}

// RiskRules maps each profile to its token lists
var RiskRules = map[RiskProfile]RiskRule{
	RiskHumanVsAnimal: {
		Blacklist: []string{
			"animal", "dog", "cat", "horse", "cow", "pig", "sheep", "rat", "mouse", "bird",
			"fish", "frog", "insect", "veterinary", "canine", "feline", "bovine", "equine",
			"mammal", "reptile", "dier", "hond", "paard", "vogel",
		},
		Compensation: []string{"human", "anatomy", "homo sapiens", "gray's anatomy", "mens", "menselijk"},
	},
	RiskHistoricalVsModern: {
		Blacklist:    []string{"reenactment", "re-enactment", "replica", "cosplay", "museum shop", "2010s", "2020s", "modern"},
		Compensation: []string{"contemporary depiction", "manuscript", "engraving", "painting", "fresco"},
	},
	RiskThematicVsTourist: {
		Blacklist:    []string{"tourist", "tourism", "selfie", "hotel", "restaurant", "vacation", "holiday", "souvenir"},
		Compensation: []string{"map", "satellite", "aerial", "landscape", "geology"},
	},
	RiskMythologyVsPopculture: {
		Blacklist:    []string{"marvel", "comic", "movie", "film", "game", "video game", "cosplay", "anime", "toy", "lego"},
		Compensation: []string{"mythology", "fresco", "vase", "relief", "statue", "sculpture", "mosaic"},
	},
	RiskDiagramVsPhoto: {
		Blacklist:    []string{"photograph", "photo of", "snapshot", "selfie"},
		Compensation: []string{"schematic", "diagram", "svg", "vector"},
	},
	RiskNone: {},
}

var (
	diagramSignals = []string{"diagram", "labeled", "labelled", "plate", "illustration", "schematic", "schema", "anatomy", "cross-section", "cross section"}

	periodVocabulary = []string{
		"century", "ancient", "medieval", "antique", "engraving", "painting", "manuscript",
		"fresco", "mosaic", "woodcut", "lithograph", "eeuw", "middeleeuwen", "romeins", "roman",
	}

	micrographSignals = []string{"micrograph", "microscope", "microscopy", "histology", "sem image", "stained"}

	photoSignals = []string{"photo", "photograph", "jpg", "jpeg"}

	stockPhotoVocabulary = []string{"stock photo", "shutterstock", "istock", "getty images", "royalty free", "clipart", "clip art", "watermark"}

	popCultureVocabulary = []string{"cartoon", "meme", "emoji", "fan art", "fanart", "cosplay", "anime", "logo", "poster"}

	educationalVocabulary = []string{"field guide", "labeled", "labelled", "taxonomy", "textbook", "educational", "scientific illustration", "specimen", "encyclopedia"}
)

var stopwords = toSet([]string{
	// nl
	"aan", "alle", "als", "dan", "dat", "deze", "die", "dit", "door", "een", "eens", "geen",
	"heeft", "hebben", "het", "hier", "hoe", "hun", "iets", "ieder", "kan", "kunnen", "maar",
	"meer", "met", "mijn", "naar", "niet", "noem", "omdat", "onder", "ook", "over", "tegen",
	"tussen", "uit", "van", "veel", "voor", "waar", "waarom", "wanneer", "want", "was", "wat",
	"welk", "welke", "werd", "wie", "wordt", "worden", "zijn", "zich", "zoals", "vraag",
	"antwoord", "leg", "beschrijf", "geef", "juiste", "onjuist", "juist", "volgende",
	// en
	"the", "and", "what", "which", "when", "where", "that", "this", "with", "from", "into",
	"does", "have", "about", "their", "there", "these", "those", "answer", "question",
})

// abstractBiologyVocabulary marks concept questions better served by a concept diagram
var abstractBiologyVocabulary = []string{
	"proces", "kringloop", "cyclus", "evolutie", "erfelijk", "ecosysteem", "voedselketen",
	"voedselweb", "fotosynthese", "verbranding", "homeostase", "regulatie", "terugkoppeling",
	"selectie", "mutatie", "stofwisseling", "gedrag", "populatie", "cycle", "process",
	"evolution", "feedback",
}

// noImageTypes are question types structurally unsuited to imagery
var noImageTypes = toSet([]string{
	"matching", "table", "ratio", "data-table", "data_table", "fill-blank", "fill_blank", "fillblank",
})

var optionalImageTypes = toSet([]string{"ordering", "open"})

// languageSubjects run the grammar-drill detector
var languageSubjects = toSet([]string{"latijn", "grieks", "frans", "duits", "engels", "nederlands"})

var grammarDrillVocabulary = []string{
	"accusativus", "nominativus", "genitivus", "dativus", "ablativus", "vocativus",
	"naamval", "vervoeg", "verbuig", "vertaal", "vertaling", "persoonsvorm", "werkwoord",
	"conjugatie", "declinatie", "praesens", "perfectum", "imperfectum", "plusquamperfectum",
	"futurum", "participium", "infinitief", "imperativus", "stamtijden", "enkelvoud", "meervoud",
	"lidwoord", "bijvoeglijk", "voornaamwoord", "grammatica", "zinsdeel", "onderwerp",
	"lijdend voorwerp", "meewerkend voorwerp",
}

// culturalVocabulary is matched as whole words; language names stay out of it
var culturalVocabulary = []string{
	"romulus", "remus", "caesar", "augustus", "nero", "cicero", "hannibal", "carthago",
	"rome", "romeinen", "romeins", "romeinse", "grieken", "athene", "sparta", "troje", "odysseus", "aeneas",
	"jupiter", "juno", "mars", "venus", "minerva", "zeus", "hera", "apollo", "athena",
	"god", "goden", "godin", "mythe", "mythen", "mythologie", "tempel", "forum", "colosseum", "legioen",
	"keizer", "senaat", "gladiator", "villa", "aquaduct", "pompeii", "vesuvius",
}

// ValidateTables checks the lookup tables cover every enum value
func ValidateTables() error {
	for _, in := range AllIntents {
		if _, ok := IntentMinScores[in]; !ok {
			return fmt.Errorf("no threshold for intent %s", in)
		}
	}
	for _, rp := range AllRiskProfiles {
		if _, ok := RiskRules[rp]; !ok {
			return fmt.Errorf("no risk rule for profile %s", rp)
		}
	}
	for subject, overrides := range SubjectMinScores {
		for in := range overrides {
			if _, err := ParseImageIntent(string(in)); err != nil {
				return fmt.Errorf("subject %s: %w", subject, err)
			}
		}
	}
	for subject, p := range SubjectProfiles {
		if _, err := ParseImageIntent(string(p.DefaultIntent)); err != nil {
			return fmt.Errorf("subject %s: %w", subject, err)
		}
		if _, err := ParseRiskProfile(string(p.DefaultRisk)); err != nil {
			return fmt.Errorf("subject %s: %w", subject, err)
		}
	}
	return nil
}

func toSet(words []string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}
