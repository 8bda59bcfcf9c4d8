package importer_test

import (
	"fmt"
	"log"
	"os"

	importer "github.com/rybkakrzy/importer-sub001"
)

// These examples show typical calls. They are compiled but not run since
// they read files.

func Example_convertToHTML() {
	data, err := os.ReadFile("document.docx")
	if err != nil {
		log.Fatal(err)
	}

	res, err := importer.New().ConvertDocxToHTML(data)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(res.HTML)
	for _, img := range res.Images {
		fmt.Println("image:", img.ID, img.MIMEType, img.Width, img.Height)
	}
	for _, w := range res.Warnings {
		fmt.Println("Warning:", w.Message)
	}
}

func Example_convertToDocx() {
	data, warnings, err := importer.New().ConvertHTMLToDocx(importer.HTMLInput{
		HTML:     "<h1>Umowa</h1><p>Strony zawieraja umowe...</p>",
		Metadata: &importer.Metadata{Title: "Umowa", Creator: "Jan Kowalski"},
		Footer:   "<p>Strona 1</p>",
	})
	if err != nil {
		log.Fatal(err)
	}
	if len(warnings) > 0 {
		log.Println("Warnings:", importer.FormatWarnings(warnings))
	}
	_ = os.WriteFile("umowa.docx", data, 0o644)
}

func Example_signAndVerify() {
	eng := importer.New()
	doc := importer.Must(os.ReadFile("umowa.docx"))
	pfx := importer.Must(os.ReadFile("signer.pfx"))

	signed, err := eng.SignDocument(doc, importer.SignRequest{
		Certificate: pfx,
		Password:    "secret",
		SignerName:  "Jan Kowalski",
		SignerTitle: "Dyrektor",
		Reason:      "Approval",
	})
	if err != nil {
		log.Fatal(err)
	}

	for _, rec := range importer.Must(eng.VerifySignatures(signed)) {
		fmt.Printf("%s %s %s\n", rec.Part, rec.SignerName, rec.Outcome)
	}
}
