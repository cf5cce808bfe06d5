package aliexpress

import (
	"encoding/json"
	"testing"
)

func TestClassifyErrorResponse(t *testing.T) {
	tests := []struct {
		name      string
		er        errorResponse
		wantType  ErrorType
		retryable bool
	}{
		{
			name:      "rate limited",
			er:        errorResponse{Code: errorCode("7"), Msg: "api call limit exceeded"},
			wantType:  ErrorRateLimited,
			retryable: true,
		},
		{
			name:      "symbolic rate limit code",
			er:        errorResponse{Code: errorCode("ApiCallLimit")},
			wantType:  ErrorRateLimited,
			retryable: true,
		},
		{
			name:     "invalid signature",
			er:       errorResponse{Code: errorCode("25"), Msg: "Invalid signature"},
			wantType: ErrorInvalidSignature,
		},
		{
			name:     "missing parameter",
			er:       errorResponse{Msg: "missing required arguments", SubCode: "isv.missing-parameter"},
			wantType: ErrorMissingParameter,
		},
		{
			name:     "permission denied",
			er:       errorResponse{Msg: "Insufficient isv permissions"},
			wantType: ErrorPermission,
		},
		{
			name:      "system error",
			er:        errorResponse{Msg: "Remote service unavailable"},
			wantType:  ErrorSystem,
			retryable: true,
		},
		{
			name:     "unrecognized",
			er:       errorResponse{Msg: "something odd happened"},
			wantType: ErrorUnknown,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyErrorResponse(&tt.er)
			if got.Type != tt.wantType {
				t.Errorf("Type = %v, want %v", got.Type, tt.wantType)
			}
			if got.Retryable != tt.retryable {
				t.Errorf("Retryable = %v, want %v", got.Retryable, tt.retryable)
			}
		})
	}
}

func TestErrorResponseDecoding(t *testing.T) {
	// The gateway mixes symbolic and numeric codes across APIs; both forms
	// must reach classification rather than failing the envelope decode.
	tests := []struct {
		name     string
		body     string
		wantCode string
		wantType ErrorType
	}{
		{
			name:     "symbolic code",
			body:     `{"error_response":{"type":"ISP","code":"ApiCallLimit","msg":"api call limit exceeded"}}`,
			wantCode: "ApiCallLimit",
			wantType: ErrorRateLimited,
		},
		{
			name:     "numeric code",
			body:     `{"error_response":{"type":"ISV","code":25,"msg":"Invalid signature"}}`,
			wantCode: "25",
			wantType: ErrorInvalidSignature,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var envelope linkGenerateEnvelope
			if err := json.Unmarshal([]byte(tt.body), &envelope); err != nil {
				t.Fatalf("envelope did not decode: %v", err)
			}
			if envelope.ErrorResponse == nil {
				t.Fatal("error_response layer was not populated")
			}
			got := classifyErrorResponse(envelope.ErrorResponse)
			if got.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Type != tt.wantType {
				t.Errorf("Type = %v, want %v", got.Type, tt.wantType)
			}
		})
	}
}

func TestClassifyErrorResponse_MessageIncludesSubMsg(t *testing.T) {
	got := classifyErrorResponse(&errorResponse{Msg: "Invalid arguments", SubMsg: "product_ids is required"})
	if got.Message != "Invalid arguments: product_ids is required" {
		t.Errorf("Message = %q", got.Message)
	}
}
