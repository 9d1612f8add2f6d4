// Package codec converts between decrypted secrets and their encrypted
// wire records.
//
// Name, value and comment are sealed independently under the same project
// key so that partial updates only re-encrypt the changed fields.
// Environment and secret type are modeled as closed enums and validated at
// this boundary; everything above the codec works with typed values.
package codec
