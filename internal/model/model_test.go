package model

import "testing"

func TestParseFilePositioning(t *testing.T) {
	tests := []struct {
		input   string
		want    FilePositioning
		wantErr bool
	}{
		{input: "主合同", want: PositioningMain},
		{input: "补充协议", want: PositioningSupplement},
		{input: "解除协议", want: PositioningTermination},
		{input: "框架协议", want: PositioningFramework},
		{input: "", want: PositioningMain}, // blank defaults to main
		{input: "附属文件", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseFilePositioning(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFilePositioning(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseFilePositioning(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFilePositioning_IsDependent(t *testing.T) {
	if PositioningMain.IsDependent() || PositioningFramework.IsDependent() {
		t.Error("main and framework must not be dependent")
	}
	if !PositioningSupplement.IsDependent() || !PositioningTermination.IsDependent() {
		t.Error("supplement and termination must be dependent")
	}
}

func TestParseContractSource(t *testing.T) {
	tests := []struct {
		input   string
		want    ContractSource
		wantErr bool
	}{
		{input: "采购", want: SourceProcurement},
		{input: "采购合同", want: SourceProcurement},
		{input: "直签", want: SourceDirect},
		{input: "直签合同", want: SourceDirect},
		{input: "", want: ""}, // blank passes through for inheritance
		{input: "招标", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseContractSource(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseContractSource(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseContractSource(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestContract_PaymentIdent(t *testing.T) {
	withSeq := &Contract{Code: "HT-001", SequenceNumber: "S001"}
	if got := withSeq.PaymentIdent(); got != "S001" {
		t.Errorf("PaymentIdent() = %q, want sequence number", got)
	}

	withoutSeq := &Contract{Code: "HT-001"}
	if got := withoutSeq.PaymentIdent(); got != "HT-001" {
		t.Errorf("PaymentIdent() = %q, want contract code", got)
	}
}
