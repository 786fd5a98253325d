/*
 * Copyright 2018-2023, CS Systemes d'Information, http://csgroup.eu
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package cli

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"text/scanner"
	"unicode"

	"github.com/CS-SI/sharedfs/lib/utils/data/json"
	"github.com/CS-SI/sharedfs/lib/utils/fail"
)

var keywordPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Token describes a token (<keyword> <operator> <value>)
type Token struct {
	members []string

	pos uint8
}

// NewToken creates a new token
func NewToken() *Token {
	t := Token{}
	t.members = make([]string, 3)
	return &t
}

// Push sets an item of the token based on its current content
func (t *Token) Push(item string) fail.Error {
	if t.IsFull() {
		return fail.NotAvailableError("token is full")
	}

	if t.pos < 2 {
		item = strings.ToLower(item)
	}
	t.members[t.pos] = item
	t.pos++
	return nil
}

// IsFull tells if the token is full
func (t *Token) IsFull() bool {
	return t.pos >= 3
}

// GetKeyword returns the keyword member of the token (pos == 0)
func (t *Token) GetKeyword() (string, fail.Error) {
	if t.pos > 0 {
		return t.members[0], nil
	}
	return "", fail.InvalidRequestError("keyword is not set in token")
}

// GetOperator returns the operator member of the token (pos == 1)
func (t *Token) GetOperator() (string, fail.Error) {
	if t.pos > 1 {
		return t.members[1], nil
	}
	return "", fail.InvalidRequestError("operator is not set in token")
}

// GetValue returns the value member of the token (pos == 2)
func (t *Token) GetValue() (string, fail.Error) {
	if t.pos > 2 {
		return t.members[2], nil
	}
	return "", fail.InvalidRequestError("value is not set in token")
}

// String returns a string representing the token
func (t *Token) String() string {
	return strings.Join(t.members, " ")
}

// Condition converts the token to a jq condition on the attribute named by the keyword
func (t *Token) Condition() (string, fail.Error) {
	if !t.IsFull() {
		return "", fail.InvalidRequestError("token isn't complete")
	}

	keyword, operator, value := t.members[0], t.members[1], t.members[2]
	if !keywordPattern.MatchString(keyword) {
		return "", fail.InvalidRequestError("invalid keyword '%s'", keyword)
	}

	literal := jqLiteral(value)
	switch operator {
	case "=", "==", "eq":
		return fmt.Sprintf(".%s == %s", keyword, literal), nil
	case "!=", "ne":
		return fmt.Sprintf(".%s != %s", keyword, literal), nil
	case "~":
		pattern, xerr := jsonString(unquote(value))
		if xerr != nil {
			return "", xerr
		}
		return fmt.Sprintf(`.%s // "" | tostring | test(%s)`, keyword, pattern), nil
	case "<", "lt", "<=", "le", ">", "gt", ">=", "ge":
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return "", fail.InvalidRequestError("value '%s' of token '%s' isn't a valid number: %s", value, keyword, err.Error())
		}
		return fmt.Sprintf(".%s %s %s", keyword, comparisons[operator], value), nil
	}

	return "", fail.InvalidRequestError("operator '%s' of token '%s' is not supported", operator, keyword)
}

var comparisons = map[string]string{
	"<": "<", "lt": "<",
	"<=": "<=", "le": "<=",
	">": ">", "gt": ">",
	">=": ">=", "ge": ">=",
}

func unquote(value string) string {
	if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
		if s, err := strconv.Unquote(value); err == nil {
			return s
		}
	}
	return value
}

// jqLiteral returns 'value' as a jq literal: numbers, booleans and null are kept, everything else becomes a string
func jqLiteral(value string) string {
	if _, err := strconv.ParseFloat(value, 64); err == nil {
		return value
	}
	switch value {
	case "true", "false", "null":
		return value
	}
	s, xerr := jsonString(unquote(value))
	if xerr != nil {
		return strconv.Quote(value)
	}
	return s
}

func jsonString(value string) (string, fail.Error) {
	out, err := json.Marshal(value)
	if err != nil {
		return "", fail.ConvertError(err)
	}
	return string(out), nil
}

// ParseParameter transforms a string like "size >= 10, status = available" to a list of tokens
func ParseParameter(request string) ([]*Token, fail.Error) {
	var (
		s       scanner.Scanner
		tokens  []*Token
		mytoken *Token
	)
	s.Init(strings.NewReader(request))
	s.Mode = scanner.ScanIdents | scanner.ScanInts | scanner.ScanFloats | scanner.ScanStrings | scanner.ScanRawStrings
	s.Error = func(*scanner.Scanner, string) {}
	// statuses like in-use or error_deleting are single identifiers
	s.IsIdentRune = func(ch rune, i int) bool {
		return ch == '_' || unicode.IsLetter(ch) || (i > 0 && (unicode.IsDigit(ch) || ch == '-' || ch == '.'))
	}

	for tok := s.Scan(); tok != scanner.EOF; tok = s.Scan() {
		t := s.TokenText()
		if t == "," {
			if mytoken == nil {
				continue
			}
			p := s.Pos()
			return nil, fail.SyntaxError("misplaced separator ',' at line %d, column %d", p.Line, p.Column)
		}

		if mytoken == nil {
			mytoken = NewToken()
		}

		// negative numbers
		if t == "-" && mytoken.pos == 2 {
			if tok = s.Scan(); tok != scanner.EOF {
				t += s.TokenText()
			}
		}

		if xerr := mytoken.Push(t); xerr != nil {
			p := s.Pos()
			return nil, fail.SyntaxError("invalid content '%s' at line %d, column %d", request, p.Line, p.Column)
		}

		// handles the cases >=, <=, == and !=
		if val, xerr := mytoken.GetOperator(); xerr == nil && mytoken.pos == 2 && (val == ">" || val == "<" || val == "=" || val == "!") {
			if s.Peek() == '=' {
				s.Next()
				mytoken.members[1] += "="
			}
		}
		if mytoken.IsFull() {
			tokens = append(tokens, mytoken)
			mytoken = nil
		}
	}
	if mytoken != nil {
		return nil, fail.SyntaxError("incomplete condition '%s' in '%s'", strings.TrimSpace(mytoken.String()), request)
	}
	return tokens, nil
}

// ParameterToQuery converts a request like "size >= 10, status = available" to a jq expression keeping the items
// satisfying every condition
func ParameterToQuery(request string) (string, fail.Error) {
	tokens, xerr := ParseParameter(request)
	if xerr != nil {
		return "", xerr
	}
	if len(tokens) == 0 {
		return "", nil
	}

	conditions := make([]string, 0, len(tokens))
	for _, t := range tokens {
		cond, xerr := t.Condition()
		if xerr != nil {
			return "", xerr
		}
		conditions = append(conditions, "("+cond+")")
	}
	return strings.Join(conditions, " and "), nil
}
