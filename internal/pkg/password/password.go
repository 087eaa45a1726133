package password

import "golang.org/x/crypto/bcrypt"

// Hash covers both user passwords and one-time codes; bcrypt's compare is
// constant-time, which the OTP check relies on.
func Hash(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func Compare(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}
