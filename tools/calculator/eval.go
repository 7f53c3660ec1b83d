package calculator

import (
	"math"
	"strconv"

	"github.com/cockroachdb/errors"
)

// ErrUnsupported is returned for expressions outside the supported grammar
var ErrUnsupported = errors.New("Unsupported expression")

// Evaluate computes an arithmetic expression.
//
// Supported: numbers, parentheses, unary minus and the binary operators
// + - * / % ** with the usual precedence. ** is right associative
// and binds tighter than unary minus, so -2**2 is -4.
// % follows the sign of the divisor.
func Evaluate(expr string) (float64, error) {
	p := &parser{src: expr}
	p.next()
	v, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	if p.tok.kind != tokEOF {
		return 0, p.syntaxError()
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.New("result is not a finite number")
	}
	return v, nil
}

type tokKind int

const (
	tokEOF tokKind = iota
	tokNum
	tokOp
	tokLParen
	tokRParen
	tokInvalid
)

type token struct {
	kind tokKind
	op   string
	num  float64
	pos  int
}

type parser struct {
	src string
	pos int
	tok token
}

func (p *parser) syntaxError() error {
	if p.tok.kind == tokEOF {
		return errors.New("invalid syntax: unexpected end of expression")
	}
	return errors.Newf("invalid syntax at position %d", p.tok.pos+1)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func (p *parser) next() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t' || p.src[p.pos] == '\n') {
		p.pos++
	}
	start := p.pos
	if p.pos >= len(p.src) {
		p.tok = token{kind: tokEOF, pos: start}
		return
	}

	c := p.src[p.pos]
	switch {
	case isDigit(c) || c == '.':
		for p.pos < len(p.src) && (isDigit(p.src[p.pos]) || p.src[p.pos] == '.' || p.src[p.pos] == '_') {
			p.pos++
		}
		// exponent
		if p.pos < len(p.src) && (p.src[p.pos] == 'e' || p.src[p.pos] == 'E') {
			save := p.pos
			p.pos++
			if p.pos < len(p.src) && (p.src[p.pos] == '+' || p.src[p.pos] == '-') {
				p.pos++
			}
			if p.pos < len(p.src) && isDigit(p.src[p.pos]) {
				for p.pos < len(p.src) && isDigit(p.src[p.pos]) {
					p.pos++
				}
			} else {
				p.pos = save
			}
		}
		v, err := strconv.ParseFloat(p.src[start:p.pos], 64)
		if err != nil {
			p.tok = token{kind: tokInvalid, pos: start}
			return
		}
		p.tok = token{kind: tokNum, num: v, pos: start}
	case c == '*' && p.pos+1 < len(p.src) && p.src[p.pos+1] == '*':
		p.pos += 2
		p.tok = token{kind: tokOp, op: "**", pos: start}
	case c == '+' || c == '-' || c == '*' || c == '/' || c == '%':
		p.pos++
		p.tok = token{kind: tokOp, op: string(c), pos: start}
	case c == '(':
		p.pos++
		p.tok = token{kind: tokLParen, pos: start}
	case c == ')':
		p.pos++
		p.tok = token{kind: tokRParen, pos: start}
	default:
		p.pos++
		p.tok = token{kind: tokInvalid, pos: start}
	}
}

// expr := term (('+' | '-') term)*
func (p *parser) parseExpr() (float64, error) {
	left, err := p.parseTerm()
	if err != nil {
		return 0, err
	}
	for p.tok.kind == tokOp && (p.tok.op == "+" || p.tok.op == "-") {
		op := p.tok.op
		p.next()
		right, err := p.parseTerm()
		if err != nil {
			return 0, err
		}
		if op == "+" {
			left += right
		} else {
			left -= right
		}
	}
	return left, nil
}

// term := unary (('*' | '/' | '%') unary)*
func (p *parser) parseTerm() (float64, error) {
	left, err := p.parseUnary()
	if err != nil {
		return 0, err
	}
	for p.tok.kind == tokOp && (p.tok.op == "*" || p.tok.op == "/" || p.tok.op == "%") {
		op := p.tok.op
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		switch op {
		case "*":
			left *= right
		case "/":
			if right == 0 {
				return 0, errors.New("division by zero")
			}
			left /= right
		case "%":
			if right == 0 {
				return 0, errors.New("modulo by zero")
			}
			left = floorMod(left, right)
		}
	}
	return left, nil
}

// unary := '-' unary | power
func (p *parser) parseUnary() (float64, error) {
	if p.tok.kind == tokOp && p.tok.op == "-" {
		p.next()
		v, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		return -v, nil
	}
	if p.tok.kind == tokOp && p.tok.op == "+" {
		return 0, ErrUnsupported
	}
	return p.parsePower()
}

// power := primary ['**' unary]
func (p *parser) parsePower() (float64, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return 0, err
	}
	if p.tok.kind == tokOp && p.tok.op == "**" {
		p.next()
		exp, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		if base == 0 && exp < 0 {
			return 0, errors.New("zero cannot be raised to a negative power")
		}
		return math.Pow(base, exp), nil
	}
	return base, nil
}

// primary := number | '(' expr ')'
func (p *parser) parsePrimary() (float64, error) {
	switch p.tok.kind {
	case tokNum:
		v := p.tok.num
		p.next()
		return v, nil
	case tokLParen:
		p.next()
		v, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		if p.tok.kind != tokRParen {
			return 0, p.syntaxError()
		}
		p.next()
		return v, nil
	case tokInvalid:
		return 0, ErrUnsupported
	default:
		return 0, p.syntaxError()
	}
}

func floorMod(a, b float64) float64 {
	r := math.Mod(a, b)
	if r != 0 && (r < 0) != (b < 0) {
		r += b
	}
	return r
}
