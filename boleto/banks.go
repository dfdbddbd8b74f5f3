package boleto

import (
	"fmt"
	"strconv"
)

// BancoDoBrasil implements the 7-digit agreement layout of bank 001:
// "000000" + agreement(7) + sequence(10) + wallet(2).
type BancoDoBrasil struct{}

func (BancoDoBrasil) Code() string { return "001" }
func (BancoDoBrasil) Name() string { return "Banco do Brasil S.A." }
func (BancoDoBrasil) Logo() []byte { return nil }

func (BancoDoBrasil) FreeField(b *Boleto) (string, error) {
	agreement, err := fixed("convênio", b.Beneficiary.Agreement, 7)
	if err != nil {
		return "", err
	}
	seq, err := fixed("nosso número", b.Beneficiary.OurNumber, 10)
	if err != nil {
		return "", err
	}
	wallet, err := fixed("carteira", b.Beneficiary.Wallet, 2)
	if err != nil {
		return "", err
	}
	return "000000" + agreement + seq + wallet, nil
}

func (BancoDoBrasil) OurNumber(b *Boleto) string {
	return leftPad(b.Beneficiary.Agreement, 7) + leftPad(b.Beneficiary.OurNumber, 10)
}

func (BancoDoBrasil) AgencyAndCode(b *Boleto) string {
	ben := b.Beneficiary
	return withDV(leftPad(ben.Agency, 4), ben.AgencyDV) + " / " + withDV(leftPad(ben.Account, 8), ben.AccountDV)
}

// Bradesco implements bank 237: agency(4) + wallet(2) + our number(11) +
// account(7) + "0".
type Bradesco struct{}

func (Bradesco) Code() string { return "237" }
func (Bradesco) Name() string { return "Banco Bradesco S.A." }
func (Bradesco) Logo() []byte { return nil }

func (Bradesco) FreeField(b *Boleto) (string, error) {
	agency, err := fixed("agência", b.Beneficiary.Agency, 4)
	if err != nil {
		return "", err
	}
	wallet, err := fixed("carteira", b.Beneficiary.Wallet, 2)
	if err != nil {
		return "", err
	}
	our, err := fixed("nosso número", b.Beneficiary.OurNumber, 11)
	if err != nil {
		return "", err
	}
	account, err := fixed("conta", b.Beneficiary.Account, 7)
	if err != nil {
		return "", err
	}
	return agency + wallet + our + account + "0", nil
}

// OurNumber prints wallet/number-DV where the DV is modulo 11 with weights
// 2..7 over wallet and number; remainder 1 prints "P".
func (Bradesco) OurNumber(b *Boleto) string {
	wallet := leftPad(b.Beneficiary.Wallet, 2)
	our := leftPad(b.Beneficiary.OurNumber, 11)
	return wallet + "/" + our + "-" + bradescoOurNumberDV(wallet+our)
}

func bradescoOurNumberDV(digits string) string {
	switch r := mod11Remainder(digits, 7); r {
	case 0:
		return "0"
	case 1:
		return "P"
	default:
		return strconv.Itoa(11 - r)
	}
}

func (Bradesco) AgencyAndCode(b *Boleto) string {
	ben := b.Beneficiary
	return withDV(leftPad(ben.Agency, 4), ben.AgencyDV) + " / " + withDV(leftPad(ben.Account, 7), ben.AccountDV)
}

// Itau implements bank 341: wallet(3) + our number(8) + DAC + agency(4) +
// account(5) + account DAC + "000".
type Itau struct{}

func (Itau) Code() string { return "341" }
func (Itau) Name() string { return "Itaú Unibanco S.A." }
func (Itau) Logo() []byte { return nil }

// Wallets whose "nosso número" DAC ignores agency and account.
var itauShortDACWallets = map[string]bool{"126": true, "131": true, "146": true, "150": true, "168": true}

func (Itau) FreeField(b *Boleto) (string, error) {
	wallet, err := fixed("carteira", b.Beneficiary.Wallet, 3)
	if err != nil {
		return "", err
	}
	our, err := fixed("nosso número", b.Beneficiary.OurNumber, 8)
	if err != nil {
		return "", err
	}
	agency, err := fixed("agência", b.Beneficiary.Agency, 4)
	if err != nil {
		return "", err
	}
	account, err := fixed("conta", b.Beneficiary.Account, 5)
	if err != nil {
		return "", err
	}
	ourDAC := itauOurNumberDAC(agency, account, wallet, our)
	accountDAC := Mod10(agency + account)
	return fmt.Sprintf("%s%s%d%s%s%d000", wallet, our, ourDAC, agency, account, accountDAC), nil
}

func itauOurNumberDAC(agency, account, wallet, our string) int {
	if itauShortDACWallets[wallet] {
		return Mod10(wallet + our)
	}
	return Mod10(agency + account + wallet + our)
}

func (Itau) OurNumber(b *Boleto) string {
	ben := b.Beneficiary
	wallet := leftPad(ben.Wallet, 3)
	our := leftPad(ben.OurNumber, 8)
	dac := itauOurNumberDAC(leftPad(ben.Agency, 4), leftPad(ben.Account, 5), wallet, our)
	return fmt.Sprintf("%s/%s-%d", wallet, our, dac)
}

func (Itau) AgencyAndCode(b *Boleto) string {
	ben := b.Beneficiary
	agency := leftPad(ben.Agency, 4)
	account := leftPad(ben.Account, 5)
	return fmt.Sprintf("%s / %s-%d", agency, account, Mod10(agency+account))
}
