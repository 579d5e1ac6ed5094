package sepa

import "encoding/xml"

// pain.001.001.03 customer credit transfer initiation. Only the elements the
// club's bank requires are modelled; optional blocks are omitted entirely.

type document struct {
	XMLName xml.Name `xml:"Document"`
	Xmlns   string   `xml:"xmlns,attr"`
	Initn   initiation
}

type initiation struct {
	XMLName xml.Name `xml:"CstmrCdtTrfInitn"`
	GrpHdr  groupHeader
	PmtInf  paymentInfo
}

type groupHeader struct {
	XMLName  xml.Name `xml:"GrpHdr"`
	MsgID    string   `xml:"MsgId"`
	CreDtTm  string   `xml:"CreDtTm"`
	NbOfTxs  int      `xml:"NbOfTxs"`
	CtrlSum  string   `xml:"CtrlSum"`
	InitgPty party    `xml:"InitgPty"`
}

type paymentInfo struct {
	XMLName      xml.Name `xml:"PmtInf"`
	PmtInfID     string   `xml:"PmtInfId"`
	PmtMtd       string   `xml:"PmtMtd"`
	NbOfTxs      int      `xml:"NbOfTxs"`
	CtrlSum      string   `xml:"CtrlSum"`
	ReqdExctnDt  string        `xml:"ReqdExctnDt"`
	Dbtr         party         `xml:"Dbtr"`
	DbtrAcct     account       `xml:"DbtrAcct"`
	DbtrAgt      agent         `xml:"DbtrAgt"`
	Transactions []transaction `xml:"CdtTrfTxInf"`
}

type party struct {
	Nm string `xml:"Nm"`
}

type account struct {
	ID accountID `xml:"Id"`
}

type accountID struct {
	IBAN string `xml:"IBAN"`
}

type agent struct {
	FinInst finInst `xml:"FinInstnId"`
}

type finInst struct {
	BIC string `xml:"BIC,omitempty"`
}

type transaction struct {
	PmtID    paymentID  `xml:"PmtId"`
	Amt      amount     `xml:"Amt"`
	Cdtr     party      `xml:"Cdtr"`
	CdtrAcct account    `xml:"CdtrAcct"`
	RmtInf   remittance `xml:"RmtInf"`
}

type paymentID struct {
	EndToEndID string `xml:"EndToEndId"`
}

type amount struct {
	InstdAmt instructedAmount `xml:"InstdAmt"`
}

type instructedAmount struct {
	Ccy   string `xml:"Ccy,attr"`
	Value string `xml:",chardata"`
}

type remittance struct {
	Ustrd string `xml:"Ustrd"`
}
