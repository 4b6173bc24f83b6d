package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"crypto/rc4"

	"github.com/wudi/kreuzberg-go/pdf/ir/raw"
)

// This file builds /Encrypt dictionaries the way a PDF writer would, purely
// so the tests in security_test.go have round-trippable fixtures to decrypt
// against. The extractor only ever reads encrypted documents, so none of
// this belongs in the package's production surface.

type fixtureOptions struct {
	Algorithm EncryptionAlgorithm
	KeyLength int // bits: 40 or 128 for RC4; 128 or 256 for AES
}

func buildEncryptDict(userPwd, ownerPwd string, perms Permissions, fileID []byte, opts fixtureOptions, encryptMetadata bool) (*raw.DictObj, string, error) {
	enc := raw.Dict()
	enc.Set(raw.NameObj{Val: "Filter"}, raw.NameObj{Val: "Standard"})
	pVal := PermissionsValue(perms)

	if opts.Algorithm == EncryptionAlgorithmAES && opts.KeyLength >= 256 {
		fileKey := make([]byte, 32)
		copy(fileKey, []byte("0123456789abcdef0123456789abcdef"))
		uSalt, ukSalt := []byte("usrvalslt"), []byte("usrkeyslt")
		uSalt, ukSalt = uSalt[:8], ukSalt[:8]
		uHash := hash2B([]byte(userPwd), uSalt, nil)
		uKeyHash := hash2B([]byte(userPwd), ukSalt, nil)
		ueBlock, _ := aes.NewCipher(uKeyHash)
		ue := make([]byte, 32)
		cipher.NewCBCEncrypter(ueBlock, make([]byte, 16)).CryptBlocks(ue, fileKey)
		uEntry := append(append(append([]byte(nil), uHash...), uSalt...), ukSalt...)

		enc.Set(raw.NameObj{Val: "V"}, raw.NumberInt(5))
		enc.Set(raw.NameObj{Val: "R"}, raw.NumberInt(6))
		enc.Set(raw.NameObj{Val: "Length"}, raw.NumberInt(256))
		enc.Set(raw.NameObj{Val: "U"}, raw.Str(uEntry))
		enc.Set(raw.NameObj{Val: "UE"}, raw.Str(ue))
		enc.Set(raw.NameObj{Val: "O"}, raw.Str(append([]byte(nil), uEntry...)))
		enc.Set(raw.NameObj{Val: "OE"}, raw.Str(append([]byte(nil), ue...)))
		enc.Set(raw.NameObj{Val: "P"}, raw.NumberObj{I: int64(pVal), IsInt: true})
		enc.Set(raw.NameObj{Val: "EncryptMetadata"}, raw.Bool(encryptMetadata))
		return enc, userPwd, nil
	}

	keyLen := opts.KeyLength
	if keyLen == 0 {
		keyLen = 128
	}
	h := &standardHandler{fileID: fileID, pValue: pVal, encryptMetadata: encryptMetadata, revision: 3, keyLenBytes: keyLen / 8}
	oEntry := fixtureOEntry(ownerPwd, userPwd, h.keyLenBytes, h.revision)
	h.o = oEntry
	fileKey := h.computeLegacyKey([]byte(userPwd))
	uEntry := fixtureUEntry(fileKey, fileID, h.revision)

	enc.Set(raw.NameObj{Val: "V"}, raw.NumberInt(4))
	enc.Set(raw.NameObj{Val: "R"}, raw.NumberInt(4))
	enc.Set(raw.NameObj{Val: "Length"}, raw.NumberInt(int64(keyLen)))
	enc.Set(raw.NameObj{Val: "O"}, raw.Str(oEntry))
	enc.Set(raw.NameObj{Val: "U"}, raw.Str(uEntry))
	enc.Set(raw.NameObj{Val: "P"}, raw.NumberObj{I: int64(pVal), IsInt: true})
	enc.Set(raw.NameObj{Val: "EncryptMetadata"}, raw.Bool(encryptMetadata))

	if opts.Algorithm == EncryptionAlgorithmAES {
		cf := raw.Dict()
		std := raw.Dict()
		std.Set(raw.NameObj{Val: "CFM"}, raw.NameObj{Val: "AESV2"})
		std.Set(raw.NameObj{Val: "Length"}, raw.NumberInt(int64(keyLen)))
		cf.Set(raw.NameObj{Val: "StdCF"}, std)
		enc.Set(raw.NameObj{Val: "CF"}, cf)
		enc.Set(raw.NameObj{Val: "StmF"}, raw.NameObj{Val: "StdCF"})
		enc.Set(raw.NameObj{Val: "StrF"}, raw.NameObj{Val: "StdCF"})
	}
	return enc, userPwd, nil
}

func buildRC4EncryptDict(userPwd, ownerPwd string, perms Permissions, fileID []byte, keyBits int, encryptMetadata bool) (*raw.DictObj, string, error) {
	return buildEncryptDict(userPwd, ownerPwd, perms, fileID, fixtureOptions{Algorithm: EncryptionAlgorithmRC4, KeyLength: keyBits}, encryptMetadata)
}

func buildStandardEncryptDict(userPwd, ownerPwd string, perms Permissions, fileID []byte, encryptMetadata bool) (*raw.DictObj, string, error) {
	return buildRC4EncryptDict(userPwd, ownerPwd, perms, fileID, 40, encryptMetadata)
}

func fixtureOEntry(ownerPwd, userPwd string, keyLen, revision int) []byte {
	owner := ownerPwd
	if owner == "" {
		owner = userPwd
	}
	hash := md5.Sum(padPassword([]byte(owner)))
	sum := hash[:]
	if revision >= 3 {
		for i := 0; i < 50; i++ {
			sum2 := md5.Sum(sum[:keyLen])
			sum = sum2[:]
		}
	}
	rc4Key := sum[:keyLen]
	out := padPassword([]byte(userPwd))
	c, _ := rc4.NewCipher(rc4Key)
	c.XORKeyStream(out, out)
	if revision >= 3 {
		for i := 1; i <= 19; i++ {
			roundKey := make([]byte, len(rc4Key))
			for j, b := range rc4Key {
				roundKey[j] = b ^ byte(i)
			}
			c, _ := rc4.NewCipher(roundKey)
			c.XORKeyStream(out, out)
		}
	}
	return out
}

func fixtureUEntry(fileKey, fileID []byte, revision int) []byte {
	if revision == 2 {
		out := append([]byte(nil), passwordPadding...)
		c, _ := rc4.NewCipher(fileKey)
		c.XORKeyStream(out, out)
		return out
	}
	hash := md5.New()
	hash.Write(passwordPadding)
	hash.Write(fileID)
	digest := hash.Sum(nil)
	c, _ := rc4.NewCipher(fileKey)
	c.XORKeyStream(digest, digest)
	for i := 1; i <= 19; i++ {
		roundKey := make([]byte, len(fileKey))
		for j, b := range fileKey {
			roundKey[j] = b ^ byte(i)
		}
		c, _ := rc4.NewCipher(roundKey)
		c.XORKeyStream(digest, digest)
	}
	out := make([]byte, 32)
	copy(out, digest)
	return out
}

// fixtureEncrypt is the writer-side counterpart to standardHandler.Decrypt,
// used only to produce ciphertext for the round-trip tests in
// security_test.go.
func fixtureEncrypt(h *standardHandler, objNum, gen int, data []byte, class DataClass) ([]byte, error) {
	if class == DataClassMetadataStream && !h.encryptMetadata {
		return data, nil
	}
	key := h.objectKey(objNum, gen)
	if h.algorithm == EncryptionAlgorithmAES {
		return fixtureAESEncrypt(key, data)
	}
	return rc4Crypt(key, data)
}

func fixtureAESEncrypt(key, data []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	padded := fixturePKCS7Pad(data, aes.BlockSize)
	out := make([]byte, aes.BlockSize+len(padded))
	iv := out[:aes.BlockSize]
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out[aes.BlockSize:], padded)
	return out, nil
}

func fixturePKCS7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+padLen)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(padLen)
	}
	return padded
}
