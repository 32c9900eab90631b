package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Amount is a monetary value in major currency units (e.g. 100.00).
// It is stored as Decimal128 and serialized to JSON as a number with two decimals.
type Amount struct {
	decimal.Decimal
}

var minorUnitExp int32 = 2

func NewAmount(d decimal.Decimal) Amount {
	return Amount{d.Round(minorUnitExp)}
}

// AmountFromMinor converts gateway minor units (kobo, cents) into an Amount.
func AmountFromMinor(minor int64) Amount {
	return Amount{decimal.New(minor, -minorUnitExp)}
}

func ParseAmount(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return NewAmount(d), nil
}

func MustAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Minor returns the value in minor units, rounded half away from zero.
func (a Amount) Minor() int64 {
	return a.Shift(minorUnitExp).Round(0).IntPart()
}

func (a Amount) Plus(b Amount) Amount {
	return Amount{a.Decimal.Add(b.Decimal)}
}

func (a Amount) Times(n int) Amount {
	return Amount{a.Decimal.Mul(decimal.NewFromInt(int64(n)))}
}

func (a Amount) MulRate(rate decimal.Decimal) Amount {
	return NewAmount(a.Decimal.Mul(rate))
}

func (a Amount) EqualTo(b Amount) bool {
	return a.Decimal.Equal(b.Decimal)
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.StringFixed(minorUnitExp)), nil
}

func (a Amount) MarshalBSONValue() (bsontype.Type, []byte, error) {
	d128, err := primitive.ParseDecimal128(a.StringFixed(minorUnitExp))
	if err != nil {
		return 0, nil, fmt.Errorf("encode amount: %w", err)
	}
	return bson.MarshalValue(d128)
}

func (a *Amount) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	rv := bson.RawValue{Type: t, Value: data}
	var s string
	switch t {
	case bsontype.Decimal128:
		s = rv.Decimal128().String()
	case bsontype.Double:
		a.Decimal = decimal.NewFromFloat(rv.Double())
		return nil
	case bsontype.Int32:
		a.Decimal = decimal.NewFromInt32(rv.Int32())
		return nil
	case bsontype.Int64:
		a.Decimal = decimal.NewFromInt(rv.Int64())
		return nil
	case bsontype.String:
		s = rv.StringValue()
	case bsontype.Null, bsontype.Undefined:
		a.Decimal = decimal.Zero
		return nil
	default:
		return fmt.Errorf("decode amount: unsupported bson type %s", t)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("decode amount: %w", err)
	}
	a.Decimal = d
	return nil
}
