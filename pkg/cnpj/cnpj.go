// Package cnpj valida y formatea el CNPJ (identificador de persona jurídica, Brasil)
// con el algoritmo de dígitos verificadores módulo 11 de la Receita Federal.
package cnpj

import (
	"fmt"
	"unicode"
)

// Length cantidad de dígitos de un CNPJ completo.
const Length = 14

// pesos para el primer dígito verificador (12 dígitos base) y para el segundo (13 dígitos).
var (
	firstWeights  = [12]int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	secondWeights = [13]int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
)

// Validate valida el CNPJ (con o sin puntos, barra y guion).
// s puede ser "11.444.777/0001-61" o "11444777000161".
func Validate(s string) error {
	digits := Normalize(s)
	if len(digits) != Length {
		return fmt.Errorf("cnpj: debe tener %d dígitos, se encontraron %d", Length, len(digits))
	}
	if allEqual(digits) {
		return fmt.Errorf("cnpj: dígitos repetidos no forman un CNPJ válido")
	}
	first, second := checkDigits(digits[:12])
	if digits[12] != first || digits[13] != second {
		return fmt.Errorf("cnpj: dígitos verificadores inválidos: esperado %c%c, recibido %c%c",
			first, second, digits[12], digits[13])
	}
	return nil
}

// IsValid atajo booleano de Validate.
func IsValid(s string) bool {
	return Validate(s) == nil
}

// ComputeCheckDigits calcula los dos dígitos verificadores para los 12 dígitos base.
// Útil para completar un CNPJ a partir de la raíz + filial.
func ComputeCheckDigits(base string) (string, error) {
	digits := Normalize(base)
	if len(digits) != 12 {
		return "", fmt.Errorf("cnpj: se requieren 12 dígitos base, se encontraron %d", len(digits))
	}
	first, second := checkDigits(digits)
	return string([]byte{first, second}), nil
}

// Normalize devuelve solo los dígitos del CNPJ.
func Normalize(s string) string {
	out := make([]byte, 0, Length)
	for _, r := range s {
		if unicode.IsDigit(r) && r < unicode.MaxASCII {
			out = append(out, byte(r))
		}
	}
	return string(out)
}

// Format aplica la máscara 00.000.000/0000-00. Si no tiene 14 dígitos devuelve la entrada.
func Format(s string) string {
	d := Normalize(s)
	if len(d) != Length {
		return s
	}
	return d[0:2] + "." + d[2:5] + "." + d[5:8] + "/" + d[8:12] + "-" + d[12:14]
}

func checkDigits(base string) (byte, byte) {
	first := mod11Digit(base[:12], firstWeights[:])
	second := mod11Digit(base[:12]+string(first), secondWeights[:])
	return first, second
}

// mod11Digit suma ponderada; resto < 2 → 0, si no 11 - resto.
func mod11Digit(digits string, weights []int) byte {
	var sum int
	for i := 0; i < len(weights); i++ {
		sum += int(digits[i]-'0') * weights[i]
	}
	remainder := sum % 11
	if remainder < 2 {
		return '0'
	}
	return byte('0' + (11 - remainder))
}

func allEqual(digits string) bool {
	for i := 1; i < len(digits); i++ {
		if digits[i] != digits[0] {
			return false
		}
	}
	return true
}
