package sqlite

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"phoenix/internal/store"
)

// SearchScenes runs a web-style query (words, "phrases", -exclusions, OR)
// against scene titles, content, scripts and answers.
func (c *Client) SearchScenes(ctx context.Context, query, code string) ([]store.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query must not be empty")
	}
	match := matchExpression(query)
	if match == "" {
		return nil, fmt.Errorf("query %q has no search terms", query)
	}

	rows, err := c.db.QueryContext(ctx, `
	SELECT s.scenario_code, s.scene_id, s.title,
		   bm25(scenes_fts, 10.0, 4.0, 1.0, 2.0) AS rank,
		   snippet(scenes_fts, -1, '**', '**', '...', 30) AS snippet
	FROM scenes_fts
	JOIN scenes s ON s.id = scenes_fts.rowid
	WHERE scenes_fts MATCH ?
	  AND (? = '' OR s.scenario_code = ?)
	ORDER BY rank, s.scenario_code, s.position
	LIMIT 50
	`, match, code, code)
	if err != nil {
		return nil, fmt.Errorf("searching scenes for %q: %w", query, err)
	}
	defer rows.Close()

	results := []store.SearchResult{}
	for rows.Next() {
		var r store.SearchResult
		var rank float64
		if err := rows.Scan(&r.ScenarioCode, &r.SceneID, &r.Title, &rank, &r.Snippet); err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		r.Score = -rank
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search results: %w", err)
	}
	return results, nil
}

type queryToken struct {
	text    string
	phrase  bool
	negated bool
}

// matchExpression turns a web-style query into an FTS5 MATCH expression.
// Terms are joined with AND unless an explicit AND, OR or NOT sits between
// them; operators with nothing to bind to are dropped.
func matchExpression(query string) string {
	var parts []string
	pending := ""
	for _, tok := range splitQuery(query) {
		if !tok.phrase && !tok.negated {
			switch op := strings.ToUpper(tok.text); op {
			case "AND", "OR", "NOT":
				if tok.text == op {
					pending = op
					continue
				}
			}
		}

		term := ftsTerm(tok)
		if term == "" {
			continue
		}
		if len(parts) == 0 {
			// A leading exclusion has nothing to exclude from.
			negated := tok.negated || pending == "NOT"
			pending = ""
			if !negated {
				parts = append(parts, term)
			}
			continue
		}
		op := pending
		switch {
		case tok.negated:
			op = "NOT"
		case op == "":
			op = "AND"
		}
		parts = append(parts, op, term)
		pending = ""
	}
	return strings.Join(parts, " ")
}

func splitQuery(query string) []queryToken {
	var tokens []queryToken
	var current strings.Builder
	inPhrase := false
	negated := false

	flush := func(phrase bool) {
		text := current.String()
		current.Reset()
		if text == "" {
			if !phrase {
				negated = false
			}
			return
		}
		tok := queryToken{text: text, phrase: phrase, negated: negated}
		if !phrase && strings.HasPrefix(text, "-") {
			tok.text = strings.TrimLeft(text, "-")
			tok.negated = true
		}
		if tok.text != "" {
			tokens = append(tokens, tok)
		}
		negated = false
	}

	for _, r := range query {
		switch {
		case r == '"' && inPhrase:
			flush(true)
			inPhrase = false
		case r == '"':
			if current.String() == "-" {
				current.Reset()
				negated = true
			} else {
				flush(false)
			}
			inPhrase = true
		case inPhrase:
			current.WriteRune(r)
		case unicode.IsSpace(r):
			flush(false)
		default:
			current.WriteRune(r)
		}
	}
	flush(inPhrase)
	return tokens
}

// ftsTerm renders one token. Plain words and word* prefixes stay bare; any
// other text is quoted so punctuation such as '-' or '#' is never read as
// query syntax.
func ftsTerm(tok queryToken) string {
	text := strings.TrimSpace(tok.text)
	if text == "" {
		return ""
	}
	word := strings.TrimSuffix(text, "*")
	if !tok.phrase && isBareword(word) && !ftsKeywords[word] {
		return text
	}
	return `"` + strings.ReplaceAll(text, `"`, `""`) + `"`
}

var ftsKeywords = map[string]bool{"AND": true, "OR": true, "NOT": true, "NEAR": true}

func isBareword(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
