// Package routes is the read-only table mapping logical route ids to their
// localised paths.
package routes

import (
	"net/url"
	"strings"

	"golang.org/x/text/language"
)

// Lang is a supported UI language.
type Lang string

const (
	EN Lang = "en"
	FR Lang = "fr"
)

// Langs lists supported languages, default first.
var Langs = []Lang{EN, FR}

// Valid reports whether l is supported.
func (l Lang) Valid() bool { return l == EN || l == FR }

// Other returns the alternate language, used by the language toggle.
func (l Lang) Other() Lang {
	if l == FR {
		return EN
	}
	return FR
}

// ID identifies a route independently of language.
type ID string

const (
	Login               ID = "login"
	Logout              ID = "logout"
	PrivacyStatement    ID = "person-case/privacy-statement"
	RequestDetails      ID = "person-case/request-details"
	PrimaryDocuments    ID = "person-case/primary-docs"
	SecondaryDocument   ID = "person-case/secondary-doc"
	PreviousSin         ID = "person-case/previous-sin"
	PersonalInformation ID = "person-case/personal-info"
	CurrentName         ID = "person-case/current-name"
	BirthDetails        ID = "person-case/birth-details"
	ParentDetails       ID = "person-case/parent-details"
	ContactInformation  ID = "person-case/contact-information"
	Review              ID = "person-case/review"
	Abandoned           ID = "person-case/abandoned"
	Confirmation        ID = "person-case/confirmation"
)

var table = map[ID]map[Lang]string{
	Login:               {EN: "/en/login", FR: "/fr/connexion"},
	Logout:              {EN: "/en/logout", FR: "/fr/deconnexion"},
	PrivacyStatement:    {EN: "/en/protected/person-case/privacy-statement", FR: "/fr/protege/cas-personne/declaration-confidentialite"},
	RequestDetails:      {EN: "/en/protected/person-case/request-details", FR: "/fr/protege/cas-personne/details-demande"},
	PrimaryDocuments:    {EN: "/en/protected/person-case/primary-docs", FR: "/fr/protege/cas-personne/docs-primaires"},
	SecondaryDocument:   {EN: "/en/protected/person-case/secondary-doc", FR: "/fr/protege/cas-personne/doc-secondaire"},
	PreviousSin:         {EN: "/en/protected/person-case/previous-sin", FR: "/fr/protege/cas-personne/nas-precedent"},
	PersonalInformation: {EN: "/en/protected/person-case/personal-info", FR: "/fr/protege/cas-personne/renseignements-personnels"},
	CurrentName:         {EN: "/en/protected/person-case/current-name", FR: "/fr/protege/cas-personne/nom-actuel"},
	BirthDetails:        {EN: "/en/protected/person-case/birth-details", FR: "/fr/protege/cas-personne/details-naissance"},
	ParentDetails:       {EN: "/en/protected/person-case/parent-details", FR: "/fr/protege/cas-personne/details-parents"},
	ContactInformation:  {EN: "/en/protected/person-case/contact-information", FR: "/fr/protege/cas-personne/coordonnees"},
	Review:              {EN: "/en/protected/person-case/review", FR: "/fr/protege/cas-personne/revue"},
	Abandoned:           {EN: "/en/protected/person-case/abandoned", FR: "/fr/protege/cas-personne/abandonne"},
	Confirmation:        {EN: "/en/protected/person-case/confirmation", FR: "/fr/protege/cas-personne/confirmation"},
}

type entry struct {
	id   ID
	lang Lang
}

var byPath = func() map[string]entry {
	m := make(map[string]entry, len(table)*len(Langs))
	for id, paths := range table {
		for lang, p := range paths {
			m[p] = entry{id, lang}
		}
	}
	return m
}()

// Path returns the path of id in lang. It panics on an unknown id, which is
// always a programming error.
func Path(id ID, lang Lang) string {
	p, ok := table[id][lang]
	if !ok {
		panic("routes: no path for " + string(id) + " in " + string(lang))
	}
	return p
}

// WithTab returns the path of id in lang carrying the tab id query parameter.
func WithTab(id ID, lang Lang, tid string) string {
	p := Path(id, lang)
	if tid == "" {
		return p
	}
	return p + "?" + url.Values{"tid": {tid}}.Encode()
}

// Resolve maps a request path back to its route id and language.
func Resolve(path string) (ID, Lang, bool) {
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	r, ok := byPath[path]
	return r.id, r.lang, ok
}

// IDs returns every route id.
func IDs() []ID {
	ids := make([]ID, 0, len(table))
	for id := range table {
		ids = append(ids, id)
	}
	return ids
}

var matcher = language.NewMatcher([]language.Tag{language.English, language.French})

// Negotiate picks a language from an Accept-Language header, falling back to
// English.
func Negotiate(acceptLanguage string) Lang {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return EN
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No || idx != 1 {
		return EN
	}
	return FR
}
