package githubauth

import (
	"fmt"
	"os"
	"strings"
)

const (
	applicationIDFieldNameConstant        = "app_id"
	installationIDFieldNameConstant       = "installation_id"
	privateKeyFieldNameConstant           = "private_key"
	positiveValueRequiredMessageConstant  = "positive value required"
	valueRequiredMessageConstant          = "value required"
	privateKeyReadErrorTemplateConstant   = "unable to read private key: %s"
	invalidCredentialsTemplateConstant    = "%s: %s"
	privateKeyPEMHeaderConstant           = "-----BEGIN"
	privateKeyNotPEMEncodedMessageConstant = "not PEM encoded"
)

// AppCredentials holds the identity of a GitHub App installation.
type AppCredentials struct {
	ApplicationID  int64
	InstallationID int64
	PrivateKeyPEM  []byte
}

// InvalidCredentialsError surfaces validation issues for GitHub App credentials.
type InvalidCredentialsError struct {
	FieldName string
	Message   string
}

// Error describes the invalid credential field.
func (credentialsError InvalidCredentialsError) Error() string {
	return fmt.Sprintf(invalidCredentialsTemplateConstant, credentialsError.FieldName, credentialsError.Message)
}

// LoadAppCredentials reads the private key from privateKeyPath and validates the assembled credentials.
func LoadAppCredentials(applicationID int64, installationID int64, privateKeyPath string) (AppCredentials, error) {
	trimmedPrivateKeyPath := strings.TrimSpace(privateKeyPath)
	if len(trimmedPrivateKeyPath) == 0 {
		return AppCredentials{}, InvalidCredentialsError{FieldName: privateKeyFieldNameConstant, Message: valueRequiredMessageConstant}
	}

	privateKeyData, readError := os.ReadFile(trimmedPrivateKeyPath)
	if readError != nil {
		return AppCredentials{}, InvalidCredentialsError{FieldName: privateKeyFieldNameConstant, Message: fmt.Sprintf(privateKeyReadErrorTemplateConstant, readError)}
	}

	credentials := AppCredentials{
		ApplicationID:  applicationID,
		InstallationID: installationID,
		PrivateKeyPEM:  privateKeyData,
	}

	if validationError := credentials.Validate(); validationError != nil {
		return AppCredentials{}, validationError
	}

	return credentials, nil
}

// Validate confirms every credential field carries a usable value.
func (credentials AppCredentials) Validate() error {
	if credentials.ApplicationID <= 0 {
		return InvalidCredentialsError{FieldName: applicationIDFieldNameConstant, Message: positiveValueRequiredMessageConstant}
	}
	if credentials.InstallationID <= 0 {
		return InvalidCredentialsError{FieldName: installationIDFieldNameConstant, Message: positiveValueRequiredMessageConstant}
	}
	if len(credentials.PrivateKeyPEM) == 0 {
		return InvalidCredentialsError{FieldName: privateKeyFieldNameConstant, Message: valueRequiredMessageConstant}
	}
	if !strings.Contains(string(credentials.PrivateKeyPEM), privateKeyPEMHeaderConstant) {
		return InvalidCredentialsError{FieldName: privateKeyFieldNameConstant, Message: privateKeyNotPEMEncodedMessageConstant}
	}
	return nil
}
