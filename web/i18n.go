package web

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"github.com/hazyhaar/sinapp/routes"
)

// messages maps a key to its English and French text.
var messages = map[string][2]string{
	"app.title":            {"Social Insurance Number: in-person application", "Numéro d'assurance sociale : demande en personne"},
	"nav.logout":           {"Sign out", "Se déconnecter"},
	"nav.language":         {"Français", "English"},
	"nav.skip":             {"Skip to main content", "Passer au contenu principal"},
	"loading.title":        {"Preparing the application", "Préparation de la demande"},
	"loading.body":         {"This page needs JavaScript to keep each browser tab separate.", "Cette page nécessite JavaScript pour séparer chaque onglet du navigateur."},
	"loading.continue":     {"Continue", "Continuer"},
	"action.next":          {"Continue", "Continuer"},
	"action.back":          {"Back", "Retour"},
	"action.cancel":        {"Cancel application", "Annuler la demande"},
	"action.submit":        {"Submit application", "Soumettre la demande"},
	"action.restart":       {"Start a new application", "Commencer une nouvelle demande"},
	"action.finish":        {"Finish", "Terminer"},
	"errors.summary":       {"The form has errors. Correct them and try again.", "Le formulaire contient des erreurs. Corrigez-les et réessayez."},
	"error.required":       {"This field is required.", "Ce champ est obligatoire."},
	"error.invalid":        {"This value is not valid.", "Cette valeur n'est pas valide."},
	"error.unknown-option": {"Select one of the listed options.", "Sélectionnez une des options proposées."},
	"error.too-long":       {"This value is too long.", "Cette valeur est trop longue."},
	"error.future-date":    {"The date cannot be in the future.", "La date ne peut pas être dans le futur."},
	"error.expired":        {"The document has expired.", "Le document est expiré."},
	"error.checksum":       {"This number is not a valid SIN.", "Ce numéro n'est pas un NAS valide."},
	"error.not-allowed":    {"This option is not allowed with the answers given.", "Cette option n'est pas permise avec les réponses fournies."},
	"error.page":           {"Something went wrong", "Une erreur s'est produite"},
	"error.code":           {"Reference code", "Code de référence"},
	"error.retry":          {"Return to the application", "Retourner à la demande"},

	"login.title":       {"Staff sign in", "Connexion du personnel"},
	"login.email":       {"Email", "Courriel"},
	"login.password":    {"Password", "Mot de passe"},
	"login.submit":      {"Sign in", "Se connecter"},
	"login.failed":      {"The email or password is incorrect.", "Le courriel ou le mot de passe est incorrect."},
	"too-many-attempts": {"Too many attempts. Wait a minute and try again.", "Trop de tentatives. Attendez une minute et réessayez."},
	"signed-out":        {"You are signed out.", "Vous êtes déconnecté."},

	"title.privacyStatement":    {"Privacy statement", "Déclaration de confidentialité"},
	"title.requestDetails":      {"Request details", "Détails de la demande"},
	"title.primaryDocuments":    {"Primary identity document", "Document d'identité principal"},
	"title.secondaryDocument":   {"Secondary identity document", "Document d'identité secondaire"},
	"title.previousSin":         {"Previous social insurance number", "Numéro d'assurance sociale précédent"},
	"title.personalInformation": {"Personal information", "Renseignements personnels"},
	"title.currentName":         {"Current name", "Nom actuel"},
	"title.birthDetails":        {"Birth details", "Détails de naissance"},
	"title.parentDetails":       {"Parent details", "Détails des parents"},
	"title.contactInformation":  {"Contact information", "Coordonnées"},
	"title.review":              {"Review the application", "Revoir la demande"},
	"title.abandoned":           {"Application cancelled", "Demande annulée"},
	"title.submitted":           {"Application submitted", "Demande soumise"},
	"review.intro":              {"Check the information with the applicant before submitting.", "Vérifiez les renseignements avec le demandeur avant de soumettre."},
	"abandoned.body":            {"The information entered for this application has been deleted.", "Les renseignements saisis pour cette demande ont été supprimés."},
	"confirmation.body":         {"The application was sent. Give the applicant this case number:", "La demande a été envoyée. Donnez ce numéro de dossier au demandeur :"},

	"field.agreedToTerms":               {"The applicant agrees to the privacy statement", "Le demandeur accepte la déclaration de confidentialité"},
	"field.type":                        {"Type of request", "Type de demande"},
	"field.scenario":                    {"Who is applying", "Qui fait la demande"},
	"field.currentStatusInCanada":       {"Status in Canada", "Statut au Canada"},
	"field.documentType":                {"Document type", "Type de document"},
	"field.registrationNumber":          {"Document or registration number", "Numéro du document ou d'enregistrement"},
	"field.givenName":                   {"Given name", "Prénom"},
	"field.lastName":                    {"Last name", "Nom de famille"},
	"field.dateOfBirth":                 {"Date of birth", "Date de naissance"},
	"field.documentNumber":              {"Document number", "Numéro du document"},
	"field.expiryDate":                  {"Expiry date", "Date d'expiration"},
	"field.hasPreviousSin":              {"Has the applicant had a SIN before?", "Le demandeur a-t-il déjà eu un NAS?"},
	"field.socialInsuranceNumber":       {"Previous SIN", "NAS précédent"},
	"field.firstNamesPreviouslyUsed":    {"First names previously used", "Prénoms utilisés auparavant"},
	"field.lastNameAtBirth":             {"Last name at birth", "Nom de famille à la naissance"},
	"field.lastNamesPreviouslyUsed":     {"Last names previously used", "Noms de famille utilisés auparavant"},
	"field.gender":                      {"Gender", "Genre"},
	"field.preferredSameAsDocumentName": {"Use the name on the primary document?", "Utiliser le nom du document principal?"},
	"field.firstName":                   {"First name", "Prénom"},
	"field.middleName":                  {"Middle name", "Second prénom"},
	"field.country":                     {"Country (3-letter code)", "Pays (code à 3 lettres)"},
	"field.province":                    {"Province or territory", "Province ou territoire"},
	"field.city":                        {"City", "Ville"},
	"field.fromMultipleBirth":           {"Part of a multiple birth?", "Issu d'une naissance multiple?"},
	"field.parentCount":                 {"Number of parents", "Nombre de parents"},
	"field.unavailable":                 {"Information not available", "Renseignements non disponibles"},
	"field.birthCountry":                {"Country of birth (3-letter code)", "Pays de naissance (code à 3 lettres)"},
	"field.birthProvince":               {"Province of birth", "Province de naissance"},
	"field.birthCity":                   {"City of birth", "Ville de naissance"},
	"field.preferredLanguage":           {"Preferred language", "Langue préférée"},
	"field.primaryPhone":                {"Primary phone number", "Numéro de téléphone principal"},
	"field.secondaryPhone":              {"Secondary phone number", "Numéro de téléphone secondaire"},
	"field.emailAddress":                {"Email address", "Adresse courriel"},
	"field.address":                     {"Street address", "Adresse"},
	"field.postalCode":                  {"Postal code", "Code postal"},
	"parent.heading":                    {"Parent %d", "Parent %d"},

	"option.yes":     {"Yes", "Oui"},
	"option.no":      {"No", "Non"},
	"option.unknown": {"Does not know", "Ne sait pas"},
	"option.en":      {"English", "Anglais"},
	"option.fr":      {"French", "Français"},

	"option.first-time":       {"First SIN", "Premier NAS"},
	"option.replacement":      {"Replacement confirmation", "Confirmation de remplacement"},
	"option.name-change":      {"Name change", "Changement de nom"},
	"option.status-update":    {"Status update", "Mise à jour du statut"},
	"option.record-amendment": {"Record amendment", "Modification du dossier"},

	"option.for-self":          {"For themselves", "Pour soi-même"},
	"option.for-child":         {"For their child", "Pour son enfant"},
	"option.as-representative": {"As a legal representative", "À titre de représentant légal"},

	"option.canadian-citizen-born-in-canada":      {"Canadian citizen born in Canada", "Citoyen canadien né au Canada"},
	"option.canadian-citizen-born-outside-canada": {"Canadian citizen born outside Canada", "Citoyen canadien né à l'extérieur du Canada"},
	"option.permanent-resident":                   {"Permanent resident", "Résident permanent"},
	"option.temporary-resident":                   {"Temporary resident", "Résident temporaire"},

	"option.birth-certificate":                   {"Birth certificate", "Certificat de naissance"},
	"option.certificate-of-canadian-citizenship": {"Certificate of Canadian citizenship", "Certificat de citoyenneté canadienne"},
	"option.permanent-resident-card":             {"Permanent resident card", "Carte de résident permanent"},
	"option.confirmation-of-permanent-residence": {"Confirmation of permanent residence", "Confirmation de résidence permanente"},
	"option.work-permit":                         {"Work permit", "Permis de travail"},
	"option.study-permit":                        {"Study permit", "Permis d'études"},
	"option.temporary-resident-permit":           {"Temporary resident permit", "Permis de séjour temporaire"},

	"option.passport":            {"Passport", "Passeport"},
	"option.drivers-licence":     {"Driver's licence", "Permis de conduire"},
	"option.provincial-photo-id": {"Provincial photo ID", "Carte d'identité provinciale avec photo"},
	"option.other":               {"Other", "Autre"},

	"option.female":         {"Female", "Femme"},
	"option.male":           {"Male", "Homme"},
	"option.another-gender": {"Another gender", "Autre genre"},
}

var tags = map[routes.Lang]language.Tag{
	routes.EN: language.English,
	routes.FR: language.French,
}

var cat = func() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, m := range messages {
		if err := b.SetString(language.English, key, m[0]); err != nil {
			panic(err)
		}
		if err := b.SetString(language.French, key, m[1]); err != nil {
			panic(err)
		}
	}
	return b
}()

// translator resolves message keys for one language.
type translator struct {
	p *message.Printer
}

func newTranslator(l routes.Lang) translator {
	tag, ok := tags[l]
	if !ok {
		tag = language.English
	}
	return translator{p: message.NewPrinter(tag, message.Catalog(cat))}
}

// T returns the text for key, or key itself when there is none.
func (t translator) T(key string, args ...any) string {
	return t.p.Sprintf(key, args...)
}

// Option returns the label of an enumerated value, falling back to the raw
// value for codes such as provinces.
func (t translator) Option(value string) string {
	key := "option." + value
	if _, ok := messages[key]; !ok {
		return value
	}
	return t.T(key)
}
