// Package qrcode renders otpauth:// provisioning URIs, or any other text, as
// QR codes using github.com/skip2/go-qrcode.
//
//	uri, _ := totp.ProvisioningURI("alice", secret, "Acme")
//	src, err := qrcode.DataURI(uri, 0)
//	if err != nil {
//	    return err
//	}
//	// <img src="{{ src }}">
package qrcode
