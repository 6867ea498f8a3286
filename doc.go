// Package dataplusmeta reads and writes DataPlusMeta files: a single text
// file bundling free-form metadata, a per-column schema table and a data
// table.
//
// A Container owns the three parts. Read loads a file and warns when its
// schema does not describe its data; Write refreshes the schema's dtypes
// from the data (or checks them strictly) before writing.
//
//	c, err := dataplusmeta.Read("readings.txt", textfmt.DecodeOptions{})
//	if err != nil {
//		return err
//	}
//	power, _ := c.Data.Column("power")
//	...
//	err = c.Write("readings.txt", dataplusmeta.WriteOptions{})
//
// The file layout is described in package textfmt.
package dataplusmeta
