package v1

import (
	"fmt"
	"net/http"

	"github.com/alex-kampa/realitycheck/business/web/v1/validate"
	"github.com/alex-kampa/realitycheck/foundation/realitycheck/signature"
	"github.com/alex-kampa/realitycheck/foundation/web"
	"github.com/ethereum/go-ethereum/common"
)

// DecodeSigned reads a signed request from the body, decodes the signed data
// into the value and validates it. The account that signed the request is
// returned as the caller.
func DecodeSigned(r *http.Request, val any) (common.Address, error) {
	var sd signature.Signed
	if err := web.Decode(r, &sd); err != nil {
		return common.Address{}, NewRequestError(err, http.StatusBadRequest)
	}

	caller, err := sd.Signer()
	if err != nil {
		return common.Address{}, NewRequestError(fmt.Errorf("signature: %w", err), http.StatusForbidden)
	}

	if err := sd.Decode(val); err != nil {
		return common.Address{}, NewRequestError(err, http.StatusBadRequest)
	}

	if err := validate.Check(val); err != nil {
		return common.Address{}, err
	}

	return caller, nil
}
