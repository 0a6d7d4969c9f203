// Package message contains all user-facing texts of zipp, keyed by language and Key.
package message

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/language"

	"github.com/nguyengg/zipp/option"
)

// Key identifies a message.
type Key int

const (
	Adding Key = iota
	Updating
	Stored
	Compressed
	Deflated
	Working
	Usage
	Closing
	Done
	Created
	UnknownOption
	NoArgs
	ErrTraverse
	ErrAdding
	CreateTemp
	TimeAdd
	TimeClose
	TimeTotal
	Processors
	Summary
)

var keyNames = [...]string{
	"adding", "updating", "stored", "compressed", "deflated", "working", "usage", "closing", "done", "created",
	"unkopt", "noargs", "errtrav", "erradd", "cretemp", "tstadd", "tstclose", "tsttotal", "tstproc", "summary",
}

func (k Key) String() string {
	if k < 0 || int(k) >= len(keyNames) {
		return fmt.Sprintf("Key(%d)", int(k))
	}

	return keyNames[k]
}

// DefaultLanguage is used when the requested language has no translation.
const DefaultLanguage = "en"

// Catalog looks up messages for one language.
//
// The zero value is not usable; use New or Default.
type Catalog struct {
	lang     string
	messages map[Key]string
}

// Default is the English catalog.
var Default = New(DefaultLanguage)

// New returns the catalog for the given language (e.g. "de", "sv").
//
// Unknown languages get the English catalog.
func New(lang string) *Catalog {
	if m, ok := bundles[lang]; ok {
		return &Catalog{lang: lang, messages: m}
	}

	return &Catalog{lang: DefaultLanguage, messages: bundles[DefaultLanguage]}
}

// Language returns the language of the catalog.
func (c *Catalog) Language() string {
	return c.lang
}

// Lookup returns the template for the given key.
//
// Keys missing from the catalog's language fall back to English, then to the key's name.
func (c *Catalog) Lookup(key Key) string {
	if s, ok := c.messages[key]; ok {
		return s
	}
	if s, ok := bundles[DefaultLanguage][key]; ok {
		return s
	}
	return key.String()
}

// Sprintf formats the template for the given key.
func (c *Catalog) Sprintf(key Key, a ...any) string {
	return fmt.Sprintf(c.Lookup(key), a...)
}

// Detect returns the base language of the user's locale from the LC_ALL, LC_MESSAGES then LANG environment
// variables.
//
// Returns DefaultLanguage if none is set or parseable.
func Detect() string {
	for _, k := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if lang := Parse(os.Getenv(k)); lang != "" {
			return lang
		}
	}

	return DefaultLanguage
}

// Parse returns the base language of a POSIX locale string such as "de_DE.UTF-8" or a BCP 47 tag such as "sv-SE".
//
// Returns an empty string if the locale is empty, "C", "POSIX", or cannot be parsed.
func Parse(locale string) string {
	if i := strings.IndexAny(locale, ".@"); i != -1 {
		locale = locale[:i]
	}
	if locale == "" || locale == "C" || locale == "POSIX" {
		return ""
	}

	tag, err := language.Parse(strings.ReplaceAll(locale, "_", "-"))
	if err != nil {
		return ""
	}

	base, _ := tag.Base()
	return base.String()
}

var bundles = map[string]map[Key]string{
	"en": {
		Adding:        "adding",
		Updating:      "updating",
		Stored:        "stored",
		Compressed:    "compressed",
		Deflated:      "deflated",
		Working:       "Working on ZIP archive %s, using the options '%s'",
		Usage:         "Usage: zipp " + option.Syntax() + " zip_archive file [...]",
		Closing:       "All files/dirs entered, now closing...",
		Done:          "Done!",
		Created:       "A zip archive of the given files/dirs has been created.",
		UnknownOption: "Error: Unknown option ",
		NoArgs:        "Not enough arguments given!",
		ErrTraverse:   "Error traversing directory %s",
		ErrAdding:     "Error adding %s: %v",
		CreateTemp:    "Creating %d temporary files, using %d processors (ignoring file args)",
		TimeAdd:       "Add: %d ms CPU in %d ms, ratio %f",
		TimeClose:     "Close: %d ms CPU in %d ms, ratio %f",
		TimeTotal:     "Total: %d ms CPU in %d ms, ratio %f",
		Processors:    "Number of available processors is %d",
		Summary:       "Added %d of %d files (%s read, %s stored)",
	},
	"de": {
		Adding:        "zufügen",
		Updating:      "aktualisieren",
		Stored:        "gespeichert",
		Compressed:    "komprimiert",
		Deflated:      "entleert",
		Working:       "Arbeiten mit ZIP-Archiv %s, verwenden die Optionen '%s'",
		Usage:         "Gebrauch: zipp " + option.Syntax() + " Zip-Archiv Datei [...]",
		Closing:       "Alle Dateien registriert; jetzt schliessen...",
		Done:          "Fertig!",
		Created:       "Ein Zip-Archiv mit den angegebenen Dateien / Verzeichnisse ist gemacht.",
		UnknownOption: "Fehler: Unbekannte Option ",
		NoArgs:        "Nicht genug Parametern angegeben!",
		ErrTraverse:   "Fehler während lesen des Kataloges %s",
		ErrAdding:     "Fehler beim Zufügen von %s: %v",
		CreateTemp:    "Schafft %d temporäre Dateien, durch %d Prozessoren (Datei-Argumente werden ignoriert)",
		TimeAdd:       "Addieren: %d ms CPU in %d ms, ratio %f",
		TimeClose:     "Schließen: %d ms CPU in %d ms, ratio %f",
		TimeTotal:     "Im Gesamt: %d ms CPU in %d ms, ratio %f",
		Processors:    "Anzahl verfügbare Prozessoren ist %d",
		Summary:       "%d von %d Dateien zugefügt (%s gelesen, %s gespeichert)",
	},
	"sv": {
		Adding:        "lägger till",
		Updating:      "uppdaterar",
		Stored:        "lagrat",
		Compressed:    "komprimerat",
		Deflated:      "hopslaget",
		Working:       "Arbetar på ZIP-arkiv %s, med väljarna '%s'",
		Usage:         "Användning: zipp " + option.Syntax() + " zip-arkiv fil [...]",
		Closing:       "Alla filer/kataloger processade, stänger arkivet...",
		Done:          "Klart!",
		Created:       "Ett zip-arkiv av angivna filer/kataloger har skapats.",
		UnknownOption: "Fel: okänd väljare ",
		NoArgs:        "Inte tillräckligt antal parametrar!",
		ErrTraverse:   "Fel under katalogläsning av %s",
		ErrAdding:     "Fel när %s lades till: %v",
		CreateTemp:    "Skapar %d temporära filer, m.h.a. %d processorer (ignorerar fil-argument)",
		TimeAdd:       "Addera: %d ms CPU på %d ms, ratio %f",
		TimeClose:     "Stänga: %d ms CPU på %d ms, ratio %f",
		TimeTotal:     "Total: %d ms CPU på %d ms, ratio %f",
		Processors:    "Antal tillgängliga processorer är %d",
		Summary:       "La till %d av %d filer (%s läst, %s lagrat)",
	},
	"la": {
		Adding:        "addens",
		Updating:      "renovans",
		Compressed:    "comprimerus",
		Deflated:      "deflarus",
		Working:       "Fabricans archivum ZIP %s, cum parametri '%s'",
		Usage:         "usus: zipp " + option.Syntax() + " archivum_zip documentum [...]",
		Closing:       "Omnia documenta lectae sunt, nunc claudeo...",
		Done:          "Egi!",
		Created:       "Archivum zip cum documenta aut catalogi indici creatum est.",
		UnknownOption: "Error: Optionis ignotus est! ",
		NoArgs:        "Numerus parametri non satis est!",
		ErrTraverse:   "Error dum legens index %s",
		CreateTemp:    "Facio %d documentum temporarium, cum %d processore auxiliariis (parametri documentae praetermissi sunt)",
		TimeAdd:       "Addere: %d ms CPU in %d ms, ratio %f",
		TimeClose:     "Claudere: %d ms CPU in %d ms, ratio %f",
		TimeTotal:     "Summa: %d ms CPU in %d ms, ratio %f",
		Processors:    "Numerus processore est %d",
	},
}
