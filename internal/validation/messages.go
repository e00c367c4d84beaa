package validation

import "fmt"

// Sentences and missing-field entries. Labels and titles come from the registry.

func moduleMissing(title string) (string, string) {
	return fmt.Sprintf("%s (módulo não preenchido)", title),
		fmt.Sprintf("O módulo \"%s\" não foi preenchido.", title)
}

func fieldMissing(label, title string) (string, string) {
	return fmt.Sprintf("%s (%s)", label, title),
		fmt.Sprintf("O campo \"%s\" do módulo \"%s\" é obrigatório.", label, title)
}

func authorizationMissing(label, title string) (string, string) {
	return fmt.Sprintf("%s (%s)", label, title),
		fmt.Sprintf("A \"%s\" no módulo \"%s\" deve ser confirmada para gerar o relatório.", label, title)
}

func otherMissing(label, title string) (string, string) {
	return fmt.Sprintf("%s - especificação de \"Outro\" (%s)", label, title),
		fmt.Sprintf("Especifique o valor de \"%s\" no módulo \"%s\": a opção \"Outro\" foi selecionada.", label, title)
}

func photoMissing(label, title string) (string, string) {
	return fmt.Sprintf("Foto: %s (%s)", label, title),
		fmt.Sprintf("A foto \"%s\" do módulo \"%s\" é obrigatória.", label, title)
}

func globalPhotoMissing(label string) (string, string) {
	return fmt.Sprintf("Foto obrigatória: %s", label),
		fmt.Sprintf("A foto obrigatória \"%s\" não foi anexada.", label)
}
