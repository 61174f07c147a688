package localization

import (
	"context"
	"net/http"
	"strings"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pitabwire/util"
	"golang.org/x/text/language"
)

var pluralForms = []string{"zero", "one", "two", "few", "many", "other"}

// Bundle exports the store as a go-i18n bundle so existing go-i18n localizers can read it.
//
// Every key becomes a message with the template in all of its plural forms. Keys grouped under a parent
// whose children are plural forms, e.g. {"Apples":{"one":"...","other":"..."}}, additionally
// become one plural message with the parent's id. Cultures that are not valid language tags
// are skipped.
func (s *Store) Bundle(ctx context.Context, defaultCulture string) (*i18n.Bundle, error) {
	defaultTag := language.English
	if defaultCulture != "" {
		tag, err := language.Parse(defaultCulture)
		if err != nil {
			return nil, err
		}
		defaultTag = tag
	}

	bundle := i18n.NewBundle(defaultTag)
	if s == nil {
		return bundle, nil
	}

	for _, table := range s.cultures {
		tag, err := language.Parse(table.name)
		if err != nil {
			util.Log(ctx).WithError(err).WithField("culture", table.name).
				Warn("culture is not a valid language tag, skipping it in the bundle")
			continue
		}

		err = bundle.AddMessages(tag, s.bundleMessages(table)...)
		if err != nil {
			return nil, err
		}
	}

	return bundle, nil
}

func (s *Store) bundleMessages(table *cultureTable) []*i18n.Message {
	messages := make([]*i18n.Message, 0, len(table.entries))
	plurals := map[string]map[string]string{}

	for _, e := range table.entries {
		// go-i18n keeps no template for an empty message
		if e.value != "" {
			messages = append(messages, uniformMessage(e.key, e.value))
		}

		idx := strings.LastIndex(e.key, s.Delimiter())
		if idx <= 0 {
			continue
		}
		parent, form := e.key[:idx], e.key[idx+len(s.Delimiter()):]
		if !isPluralForm(form) {
			continue
		}
		if plurals[parent] == nil {
			plurals[parent] = map[string]string{}
		}
		plurals[parent][form] = e.value
	}

	for id, forms := range plurals {
		if _, isLeaf := table.entries[s.fold(id)]; isLeaf {
			continue
		}
		other := forms["other"]
		if other == "" {
			continue
		}
		form := func(name string) string {
			if v, found := forms[name]; found {
				return v
			}
			return other
		}
		messages = append(messages, &i18n.Message{
			ID:    id,
			Zero:  form("zero"),
			One:   form("one"),
			Two:   form("two"),
			Few:   form("few"),
			Many:  form("many"),
			Other: other,
		})
	}

	return messages
}

// uniformMessage fills every plural form so a plural count never selects a missing template.
func uniformMessage(id, value string) *i18n.Message {
	return &i18n.Message{ID: id, Zero: value, One: value, Two: value, Few: value, Many: value, Other: value}
}

func isPluralForm(form string) bool {
	for _, f := range pluralForms {
		if f == form {
			return true
		}
	}
	return false
}

// Translator renders go-i18n templates with variables and plural counts over a Store.
type Translator struct {
	bundle *i18n.Bundle
}

// NewTranslator exports store into a bundle with defaultCulture as its fallback language.
func NewTranslator(ctx context.Context, store *Store, defaultCulture string) (*Translator, error) {
	bundle, err := store.Bundle(ctx, defaultCulture)
	if err != nil {
		return nil, err
	}
	return &Translator{bundle: bundle}, nil
}

// Bundle access the translation bundle.
func (t *Translator) Bundle() *i18n.Bundle {
	return t.bundle
}

// Translate performs a quick translation based on the supplied message id.
func (t *Translator) Translate(ctx context.Context, request any, messageID string) string {
	return t.TranslateWithMap(ctx, request, messageID, map[string]any{})
}

// TranslateWithMap performs a translation with variables based on the supplied message id.
func (t *Translator) TranslateWithMap(
	ctx context.Context,
	request any,
	messageID string,
	variables map[string]any,
) string {
	return t.TranslateWithMapAndCount(ctx, request, messageID, variables, 1)
}

// TranslateWithMapAndCount performs a translation with variables and a plural count.
// request selects the languages: a *http.Request, a context carrying them, a string or a []string.
func (t *Translator) TranslateWithMapAndCount(
	ctx context.Context,
	request any,
	messageID string,
	variables map[string]any,
	count int,
) string {
	var languageSlice []string

	switch v := request.(type) {
	case *http.Request:
		languageSlice = ExtractLanguageFromHTTPRequest(v)

	case context.Context:
		languageSlice = FromContext(v)
		if len(languageSlice) == 0 {
			languageSlice = ExtractLanguageFromGrpcRequest(v)
		}

	case string:
		languageSlice = []string{v}

	case []string:
		languageSlice = v

	default:
		logger := util.Log(ctx).WithField("messageID", messageID).WithField("variables", variables)
		logger.Warn("TranslateWithMapAndCount -- no valid request object found, use string, []string, context or http.Request")
		return messageID
	}

	localizer := i18n.NewLocalizer(t.bundle, languageSlice...)

	transVersion, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:      messageID,
		DefaultMessage: uniformMessage(messageID, messageID),
		TemplateData:   variables,
		PluralCount:    count,
	})
	if err != nil {
		util.Log(ctx).WithError(err).WithField("messageID", messageID).
			Warn("TranslateWithMapAndCount -- could not perform translation")
	}

	if transVersion == "" {
		return messageID
	}
	return transVersion
}
