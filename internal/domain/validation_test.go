package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "integer", input: "100", want: "100"},
		{name: "two decimal places", input: "12.34", want: "12.34"},
		{name: "one decimal place", input: "0.5", want: "0.5"},
		{name: "negative", input: "-3.20", want: "-3.2"},
		{name: "surrounding whitespace", input: "  7.25 ", want: "7.25"},
		{name: "empty", input: "", wantErr: true},
		{name: "blank", input: "   ", wantErr: true},
		{name: "three decimal places", input: "1.234", wantErr: true},
		{name: "not a number", input: "abc", wantErr: true},
		{name: "trailing garbage", input: "10.00x", wantErr: true},
		{name: "comma separator", input: "1,000.00", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDecimal(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseDecimal(%q) = %s, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDecimal(%q) error = %v", tt.input, err)
			}
			if got.String() != tt.want {
				t.Errorf("ParseDecimal(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidateAccountNumber(t *testing.T) {
	tests := []struct {
		name    string
		number  string
		wantErr bool
	}{
		{name: "exactly 15 characters", number: "123456789012345"},
		{name: "too short", number: "12345678901234", wantErr: true},
		{name: "too long", number: "1234567890123456", wantErr: true},
		{name: "empty", number: "", wantErr: true},
		{name: "blank", number: "               ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAccountNumber(tt.number)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAccountNumber(%q) error = %v, wantErr %v", tt.number, err, tt.wantErr)
			}
		})
	}
}

func TestValidateAmount(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    string
		wantErr bool
	}{
		{name: "positive", value: "10.50", want: "10.5"},
		{name: "zero", value: "0", wantErr: true},
		{name: "zero with decimals", value: "0.00", wantErr: true},
		{name: "negative", value: "-1", wantErr: true},
		{name: "malformed", value: "ten", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateAmount(tt.value)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ValidateAmount(%q) = %s, want error", tt.value, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidateAmount(%q) error = %v", tt.value, err)
			}
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("ValidateAmount(%q) = %s, want %s", tt.value, got, tt.want)
			}
		})
	}
}

func TestValidateReference(t *testing.T) {
	long := make([]byte, MaxReferenceLength+1)
	for i := range long {
		long[i] = 'x'
	}

	tests := []struct {
		name      string
		reference string
		wantErr   bool
	}{
		{name: "valid", reference: "invoice 42"},
		{name: "empty", reference: "", wantErr: true},
		{name: "blank", reference: "  ", wantErr: true},
		{name: "too long", reference: string(long), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateReference(tt.reference)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateReference() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateType(t *testing.T) {
	tests := []struct {
		txType  string
		wantErr bool
	}{
		{txType: "C"},
		{txType: "D"},
		{txType: "c", wantErr: true},
		{txType: "X", wantErr: true},
		{txType: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run("type "+tt.txType, func(t *testing.T) {
			err := ValidateType(tt.txType)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateType(%q) error = %v, wantErr %v", tt.txType, err, tt.wantErr)
			}
		})
	}
}

func TestBatchRowIsEmpty(t *testing.T) {
	tests := []struct {
		name string
		row  BatchRow
		want bool
	}{
		{name: "zero value", row: BatchRow{}, want: true},
		{name: "zero amount", row: BatchRow{Amount: "0"}, want: true},
		{name: "zero amount with decimals", row: BatchRow{Amount: "0.00"}, want: true},
		{name: "has account number", row: BatchRow{AccountNumber: "123456789012345"}, want: false},
		{name: "has reference", row: BatchRow{Reference: "something"}, want: false},
		{name: "has amount", row: BatchRow{Amount: "5"}, want: false},
		{name: "malformed amount only", row: BatchRow{Amount: "abc"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.row.IsEmpty(); got != tt.want {
				t.Errorf("IsEmpty() = %v, want %v", got, tt.want)
			}
		})
	}
}
