// Package vocabulary holds the alias and stop-word tables used by term normalization.
// The tables are configuration data: an embedded default set can be extended or
// replaced by a YAML file without touching the normalization algorithm.
package vocabulary

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"os"
	"sort"
	"strings"

	_ "embed"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultTables []byte

// maxAliasChain bounds alias chain resolution (a -> b -> c).
const maxAliasChain = 8

// Vocabulary is the set of tables consumed by the normalizer.
type Vocabulary struct {
	// Aliases maps a whole normalized phrase to its canonical form.
	Aliases map[string]string `yaml:"aliases"`
	// StopWords lists sub-tokens that never carry signal.
	StopWords []string `yaml:"stop_words"`
	// Replace discards the embedded defaults when the file is loaded.
	Replace bool `yaml:"replace,omitempty"`
}

// Default returns a fresh copy of the embedded tables.
func Default() *Vocabulary {
	v, err := parse(defaultTables)
	if err != nil {
		// The embedded file is part of the build.
		panic(fmt.Sprintf("vocabulary: embedded defaults are broken: %v", err))
	}

	if err := v.Validate(); err != nil {
		panic(fmt.Sprintf("vocabulary: embedded defaults are invalid: %v", err))
	}

	return v
}

// Load reads a YAML vocabulary file and merges it over the defaults.
// An empty path returns the defaults.
func Load(path string) (*Vocabulary, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading vocabulary file %q: %w", path, err)
	}

	override, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing vocabulary file %q: %w", path, err)
	}

	base := Default()
	if override.Replace {
		base = &Vocabulary{Aliases: map[string]string{}}
	}
	base.Merge(override)

	if err := base.Validate(); err != nil {
		return nil, fmt.Errorf("vocabulary file %q: %w", path, err)
	}

	return base, nil
}

func parse(data []byte) (*Vocabulary, error) {
	var v Vocabulary
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}

	if v.Aliases == nil {
		v.Aliases = make(map[string]string)
	}

	return &v, nil
}

// Merge adds the aliases and stop words of other, overriding duplicate alias keys.
func (v *Vocabulary) Merge(other *Vocabulary) {
	if other == nil {
		return
	}

	if v.Aliases == nil {
		v.Aliases = make(map[string]string, len(other.Aliases))
	}

	for from, to := range other.Aliases {
		v.Aliases[from] = to
	}

	v.StopWords = append(v.StopWords, other.StopWords...)
}

// Validate canonicalizes the tables in place.
// Keys and values are lower-cased and whitespace-collapsed, alias chains are
// resolved to their final form, and stop words are removed from canonical forms
// so that a canonical phrase never collapses into another alias key.
func (v *Vocabulary) Validate() error {
	stop := make(map[string]struct{}, len(v.StopWords))
	words := make([]string, 0, len(v.StopWords))
	for _, w := range v.StopWords {
		w = clean(w)
		if w == "" {
			continue
		}
		if strings.Contains(w, " ") {
			return fmt.Errorf("stop word %q must be a single token", w)
		}
		if _, ok := stop[w]; ok {
			continue
		}
		stop[w] = struct{}{}
		words = append(words, w)
	}
	sort.Strings(words)
	v.StopWords = words

	aliases := make(map[string]string, len(v.Aliases))
	for from, to := range v.Aliases {
		from, to = clean(from), clean(to)
		if from == "" || to == "" {
			return fmt.Errorf("alias %q -> %q: both sides are required", from, to)
		}
		aliases[from] = dropStopWords(to, stop)
		if aliases[from] == "" {
			return fmt.Errorf("alias %q canonical form consists of stop words only", from)
		}
	}

	for from := range aliases {
		to := aliases[from]
		for i := 0; ; i++ {
			next, ok := aliases[to]
			if !ok || next == to {
				break
			}
			if i == maxAliasChain {
				return fmt.Errorf("alias %q: chain is too long or cyclic", from)
			}
			to = next
		}
		aliases[from] = to
	}

	for from, to := range aliases {
		if from == to {
			delete(aliases, from)
		}
	}

	v.Aliases = aliases
	return nil
}

// Canonicals returns every token that appears in a canonical alias form.
func (v *Vocabulary) Canonicals() map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, to := range v.Aliases {
		for _, token := range strings.Fields(to) {
			tokens[token] = struct{}{}
		}
	}
	return tokens
}

// Fingerprint identifies the table contents. Equal vocabularies produce equal fingerprints.
func (v *Vocabulary) Fingerprint() string {
	keys := make([]string, 0, len(v.Aliases))
	for k := range v.Aliases {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := sha256.New()
	for _, k := range keys {
		fmt.Fprintf(h, "a:%s=%s\n", k, v.Aliases[k])
	}

	words := append([]string(nil), v.StopWords...)
	sort.Strings(words)
	for _, w := range words {
		fmt.Fprintf(h, "s:%s\n", w)
	}

	return fmt.Sprintf("%x", h.Sum(nil)[:8])
}

func clean(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func dropStopWords(phrase string, stop map[string]struct{}) string {
	kept := make([]string, 0, 2)
	for _, token := range strings.Fields(phrase) {
		if _, ok := stop[token]; ok {
			continue
		}
		kept = append(kept, token)
	}
	return strings.Join(kept, " ")
}
